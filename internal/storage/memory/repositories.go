package memory

import (
	"context"
	"fmt"
	"sort"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

type roomRepository struct {
	store *Store
}

func (r *roomRepository) FindByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	err := r.store.view(ctx, func(st *state) error {
		found, ok := st.rooms[id]
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("room with id %d not found", id))
		}
		room = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByIDForUpdate needs no extra lock: the store mutex already serialises
// every transaction.
func (r *roomRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Room, error) {
	return r.FindByID(ctx, id)
}

func (r *roomRepository) List(ctx context.Context, onlyAvailable bool) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.store.view(ctx, func(st *state) error {
		for _, room := range st.rooms {
			if onlyAvailable && !room.Available {
				continue
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, err
}

func (r *roomRepository) Insert(ctx context.Context, room *domain.Room) error {
	return r.store.view(ctx, func(st *state) error {
		room.ID = st.newID()
		st.rooms[room.ID] = *room
		return nil
	})
}

func (r *roomRepository) Update(ctx context.Context, room *domain.Room) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.rooms[room.ID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("room with id %d not found", room.ID))
		}
		st.rooms[room.ID] = *room
		return nil
	})
}

func (r *roomRepository) Delete(ctx context.Context, id int64) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.rooms[id]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("room with id %d not found", id))
		}
		delete(st.rooms, id)
		return nil
	})
}

type bookingRepository struct {
	store *Store
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.store.view(ctx, func(st *state) error {
		found, ok := st.bookings[id]
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %d not found", id))
		}
		booking = st.materialize(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) FindActiveOverlapping(ctx context.Context, roomID int64, stay domain.DateRange, excludeID int64) ([]domain.Booking, error) {
	var conflicts []domain.Booking
	err := r.store.view(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.RoomID != roomID || b.ID == excludeID || !b.Status.Occupies() {
				continue
			}
			if b.Stay.Overlaps(stay) {
				conflicts = append(conflicts, st.materialize(b))
			}
		}
		return nil
	})
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ID < conflicts[j].ID })
	return conflicts, err
}

func (r *bookingRepository) List(ctx context.Context, filter storage.BookingFilter) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.store.view(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if filter.UserID != nil && b.UserID != *filter.UserID {
				continue
			}
			if filter.Status != nil && b.Status != *filter.Status {
				continue
			}
			bookings = append(bookings, st.materialize(b))
		}
		return nil
	})
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, err
}

func (r *bookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.rooms[booking.RoomID]; !ok {
			return fmt.Errorf("inserting booking: room %d does not exist", booking.RoomID)
		}
		booking.ID = st.newID()
		stored := *booking
		stored.Payment = nil
		st.bookings[booking.ID] = stored
		return nil
	})
}

func (r *bookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.bookings[booking.ID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %d not found", booking.ID))
		}
		stored := *booking
		stored.Payment = nil
		st.bookings[booking.ID] = stored
		return nil
	})
}

// materialize attaches the booking's payment, if any.
func (st *state) materialize(b domain.Booking) domain.Booking {
	for _, p := range st.payments {
		if p.BookingID == b.ID {
			cp := copyPayment(p)
			b.Payment = &cp
			break
		}
	}
	return b
}

type paymentRepository struct {
	store *Store
}

func (r *paymentRepository) find(ctx context.Context, match func(domain.Payment) bool, notFound string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.store.view(ctx, func(st *state) error {
		for _, p := range st.payments {
			if match(p) {
				payment = copyPayment(p)
				return nil
			}
		}
		return apperrors.NewNotFoundError(notFound)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.find(ctx, func(p domain.Payment) bool { return p.ID == id },
		fmt.Sprintf("payment with id %d not found", id))
}

func (r *paymentRepository) FindByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return r.find(ctx, func(p domain.Payment) bool { return p.OrderRef == orderRef },
		fmt.Sprintf("payment with order reference %s not found", orderRef))
}

func (r *paymentRepository) FindByOrderRefForUpdate(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return r.FindByOrderRef(ctx, orderRef)
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return r.find(ctx, func(p domain.Payment) bool { return p.BookingID == bookingID },
		fmt.Sprintf("payment for booking %d not found", bookingID))
}

func (r *paymentRepository) FindByBookingIDForUpdate(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return r.FindByBookingID(ctx, bookingID)
}

func (r *paymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.store.view(ctx, func(st *state) error {
		for _, p := range st.payments {
			payments = append(payments, copyPayment(p))
		}
		return nil
	})
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return payments, err
}

func (r *paymentRepository) Insert(ctx context.Context, payment *domain.Payment) error {
	return r.store.view(ctx, func(st *state) error {
		if err := st.checkPaymentUnique(*payment); err != nil {
			return err
		}
		payment.ID = st.newID()
		st.payments[payment.ID] = copyPayment(*payment)
		return nil
	})
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.payments[payment.ID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("payment with id %d not found", payment.ID))
		}
		if err := st.checkPaymentUnique(*payment); err != nil {
			return err
		}
		st.payments[payment.ID] = copyPayment(*payment)
		return nil
	})
}

// checkPaymentUnique mirrors the unique keys on bookingId and orderRef.
func (st *state) checkPaymentUnique(payment domain.Payment) error {
	for _, p := range st.payments {
		if p.ID == payment.ID {
			continue
		}
		if p.BookingID == payment.BookingID {
			return apperrors.NewConflictError(fmt.Sprintf("booking %d already has a payment", payment.BookingID))
		}
		if p.OrderRef == payment.OrderRef {
			return apperrors.NewConflictError(fmt.Sprintf("order reference %s already in use", payment.OrderRef))
		}
	}
	return nil
}

func copyPayment(p domain.Payment) domain.Payment {
	if p.PaidAt != nil {
		paidAt := *p.PaidAt
		p.PaidAt = &paidAt
	}
	return p
}

type feedbackRepository struct {
	store *Store
}

func (r *feedbackRepository) FindByID(ctx context.Context, id int64) (*domain.Feedback, error) {
	var feedback domain.Feedback
	err := r.store.view(ctx, func(st *state) error {
		found, ok := st.feedbacks[id]
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("feedback with id %d not found", id))
		}
		feedback = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	exists := false
	err := r.store.view(ctx, func(st *state) error {
		for _, f := range st.feedbacks {
			if f.BookingID == bookingID {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *feedbackRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Feedback, error) {
	var feedbacks []domain.Feedback
	err := r.store.view(ctx, func(st *state) error {
		for _, f := range st.feedbacks {
			if f.RoomID == roomID {
				feedbacks = append(feedbacks, f)
			}
		}
		return nil
	})
	sort.Slice(feedbacks, func(i, j int) bool { return feedbacks[i].ID > feedbacks[j].ID })
	return feedbacks, err
}

func (r *feedbackRepository) Insert(ctx context.Context, feedback *domain.Feedback) error {
	return r.store.view(ctx, func(st *state) error {
		for _, f := range st.feedbacks {
			if f.BookingID == feedback.BookingID {
				return apperrors.NewConflictError(fmt.Sprintf("booking %d already has feedback", feedback.BookingID))
			}
		}
		feedback.ID = st.newID()
		st.feedbacks[feedback.ID] = *feedback
		return nil
	})
}

func (r *feedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	return r.store.view(ctx, func(st *state) error {
		if _, ok := st.feedbacks[feedback.ID]; !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("feedback with id %d not found", feedback.ID))
		}
		st.feedbacks[feedback.ID] = *feedback
		return nil
	})
}
