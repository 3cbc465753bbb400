package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"staybook/internal/domain"
)

type Event string

const (
	EventConfirmed Event = "BOOKING_CONFIRMED"
	EventCancelled Event = "BOOKING_CANCELLED"
)

// Message is the payload handed to the email side. It carries enough of the
// booking that consumers never need to query the database.
type Message struct {
	Event      Event  `json:"event"`
	BookingID  int64  `json:"bookingId"`
	UserID     int64  `json:"userId"`
	RoomID     int64  `json:"roomId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Nights     int    `json:"nights"`
	TotalPrice string `json:"totalPrice"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurredAt"`
}

func NewMessage(event Event, booking domain.Booking, at time.Time) Message {
	return Message{
		Event:      event,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		RoomID:     booking.RoomID,
		StartDate:  booking.Stay.Start.Format(time.DateOnly),
		EndDate:    booking.Stay.End.Format(time.DateOnly),
		Nights:     booking.Stay.Nights(),
		TotalPrice: booking.TotalPrice.StringFixed(2),
		Status:     string(booking.Status),
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}

// Notifier delivers booking events to guests.
type Notifier interface {
	Send(ctx context.Context, event Event, booking domain.Booking) error
}

// LogNotifier writes each event to the log. It is the default when no broker
// is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, event Event, booking domain.Booking) error {
	n.logger.Info("booking notification",
		zap.String("event", string(event)),
		zap.Int64("bookingId", booking.ID),
		zap.Int64("userId", booking.UserID),
		zap.String("stay", booking.Stay.String()),
	)
	return nil
}
