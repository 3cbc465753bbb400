package storage

import (
	"context"

	"staybook/internal/domain"
)

// Store is the persistence boundary. Repositories obtained from a Store passed
// to a WithinTx callback run inside that transaction. ForUpdate variants take
// a row lock that is held until the transaction ends.
type Store interface {
	Rooms() RoomRepository
	Bookings() BookingRepository
	Payments() PaymentRepository
	Feedbacks() FeedbackRepository

	// WithinTx runs fn in a transaction. Returning an error rolls back every
	// write fn made. Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type RoomRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Room, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context, onlyAvailable bool) ([]domain.Room, error)
	Insert(ctx context.Context, room *domain.Room) error
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id int64) error
}

type BookingFilter struct {
	UserID *int64
	Status *domain.BookingStatus
}

type BookingRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	// FindActiveOverlapping returns occupying bookings of the room whose
	// range overlaps stay. excludeID of 0 excludes nothing.
	FindActiveOverlapping(ctx context.Context, roomID int64, stay domain.DateRange, excludeID int64) ([]domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	Insert(ctx context.Context, booking *domain.Booking) error
	Update(ctx context.Context, booking *domain.Booking) error
}

type PaymentRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Payment, error)
	FindByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error)
	FindByOrderRefForUpdate(ctx context.Context, orderRef string) (*domain.Payment, error)
	// FindByBookingIDForUpdate returns a NotFoundError when the booking has
	// no payment yet.
	FindByBookingIDForUpdate(ctx context.Context, bookingID int64) (*domain.Payment, error)
	FindByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
	Insert(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
}

type FeedbackRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Feedback, error)
	ExistsForBooking(ctx context.Context, bookingID int64) (bool, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Feedback, error)
	Insert(ctx context.Context, feedback *domain.Feedback) error
	Update(ctx context.Context, feedback *domain.Feedback) error
}
