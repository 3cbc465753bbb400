package memory

import (
	"context"
	"sync"

	"staybook/internal/domain"
	"staybook/internal/storage"
)

type state struct {
	rooms     map[int64]domain.Room
	bookings  map[int64]domain.Booking
	payments  map[int64]domain.Payment
	feedbacks map[int64]domain.Feedback
	nextID    int64
}

func newState() *state {
	return &state{
		rooms:     map[int64]domain.Room{},
		bookings:  map[int64]domain.Booking{},
		payments:  map[int64]domain.Payment{},
		feedbacks: map[int64]domain.Feedback{},
	}
}

func (s *state) clone() *state {
	c := &state{
		rooms:     make(map[int64]domain.Room, len(s.rooms)),
		bookings:  make(map[int64]domain.Booking, len(s.bookings)),
		payments:  make(map[int64]domain.Payment, len(s.payments)),
		feedbacks: make(map[int64]domain.Feedback, len(s.feedbacks)),
		nextID:    s.nextID,
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.feedbacks {
		c.feedbacks[k] = v
	}
	return c
}

func (s *state) newID() int64 {
	s.nextID++
	return s.nextID
}

// Store keeps everything in process memory. Transactions are fully
// serialised by a single mutex and work on a copy of the data that replaces
// the committed copy only when the callback succeeds.
type Store struct {
	mu        *sync.Mutex
	committed **state
	tx        *state
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, committed: &st}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := (*s.committed).clone()
	txStore := &Store{mu: s.mu, committed: s.committed, tx: work}
	if err := fn(ctx, txStore); err != nil {
		return err
	}

	*s.committed = work
	return nil
}

// view runs fn against the transaction's working copy, or inside a
// single-statement transaction when called outside one.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		return fn(tx.(*Store).tx)
	})
}

func (s *Store) Rooms() storage.RoomRepository {
	return &roomRepository{store: s}
}

func (s *Store) Bookings() storage.BookingRepository {
	return &bookingRepository{store: s}
}

func (s *Store) Payments() storage.PaymentRepository {
	return &paymentRepository{store: s}
}

func (s *Store) Feedbacks() storage.FeedbackRepository {
	return &feedbackRepository{store: s}
}
