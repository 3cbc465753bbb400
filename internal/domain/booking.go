package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"staybook/internal/clock"
	apperrors "staybook/internal/errors"
)

type BookingStatus string

const (
	BookingAwaitingPayment   BookingStatus = "AWAITING_PAYMENT"
	BookingPaymentInProgress BookingStatus = "PAYMENT_IN_PROGRESS"
	BookingConfirmed         BookingStatus = "CONFIRMED"
	BookingCancelled         BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingAwaitingPayment:   {BookingPaymentInProgress, BookingConfirmed, BookingCancelled},
	BookingPaymentInProgress: {BookingConfirmed, BookingAwaitingPayment, BookingCancelled},
	BookingConfirmed:         {BookingCancelled},
	BookingCancelled:         {},
}

// OccupyingStatuses are the statuses that hold a room's nights against other
// bookings.
var OccupyingStatuses = []BookingStatus{BookingPaymentInProgress, BookingConfirmed}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) Occupies() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// AllowsFeedback reports whether a guest may leave feedback for a booking in
// this status.
func (s BookingStatus) AllowsFeedback() bool {
	return s == BookingPaymentInProgress || s == BookingConfirmed
}

// Occupants is the guest mix of a stay. Tier A children are charged the flat
// child rate; tier B children stay free.
type Occupants struct {
	Adults        int
	ChildrenTierA int
	ChildrenTierB int
}

func (o Occupants) Total() int {
	return o.Adults + o.ChildrenTierA + o.ChildrenTierB
}

func (o Occupants) Validate() error {
	var details []apperrors.ValidationDetail
	if o.Adults < 1 {
		details = append(details, apperrors.ValidationDetail{Field: "adults", Message: "adults must be at least 1"})
	}
	if o.ChildrenTierA < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "childrenTierA", Message: "childrenTierA must not be negative"})
	}
	if o.ChildrenTierB < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "childrenTierB", Message: "childrenTierB must not be negative"})
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid occupants", details...)
	}
	return nil
}

// BookingPolicy holds the tunable rules of the reservation lifecycle.
type BookingPolicy struct {
	Cutoff        time.Duration
	MaxNights     int
	MaxNoteLength int
	Location      *time.Location
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		Cutoff:        48 * time.Hour,
		MaxNights:     30,
		MaxNoteLength: 500,
		Location:      time.UTC,
	}
}

func (p BookingPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// StayRequest is the caller's description of a wanted stay.
type StayRequest struct {
	RoomID int64
	Stay   DateRange
	Guests Occupants
	Note   string
}

func (r StayRequest) Validate(today time.Time, policy BookingPolicy) error {
	if err := r.Stay.Validate(today, policy.MaxNights); err != nil {
		return err
	}
	if err := r.Guests.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Note) > policy.MaxNoteLength {
		return apperrors.NewValidationError("invalid note", apperrors.ValidationDetail{
			Field:   "note",
			Message: fmt.Sprintf("note must not exceed %d characters", policy.MaxNoteLength),
		})
	}
	return nil
}

type Booking struct {
	ID         int64
	UserID     int64
	RoomID     int64
	Stay       DateRange
	Guests     Occupants
	Note       string
	TotalPrice decimal.Decimal
	Status     BookingStatus
	Payment    *Payment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BeforeCutoff reports whether now plus the cutoff is still strictly before
// the start of the checkout day.
func (b Booking) BeforeCutoff(now time.Time, policy BookingPolicy) bool {
	checkout := clock.StartOfDay(b.Stay.End, policy.location())
	return now.Add(policy.Cutoff).Before(checkout)
}

func (b Booking) CheckModifiable(now time.Time, policy BookingPolicy) error {
	if !b.BeforeCutoff(now, policy) {
		return apperrors.NewStateError(apperrors.GuardCutoffPassed, "booking can no longer be modified")
	}
	if b.Status != BookingAwaitingPayment {
		return apperrors.NewStateError(apperrors.GuardStatusNotModifiable,
			fmt.Sprintf("booking in status %s cannot be modified", b.Status))
	}
	return nil
}

func (b *Booking) Cancel(now time.Time, policy BookingPolicy) error {
	if !b.BeforeCutoff(now, policy) {
		return apperrors.NewStateError(apperrors.GuardCutoffPassed, "booking can no longer be cancelled")
	}
	if b.Status != BookingAwaitingPayment && b.Status != BookingConfirmed {
		return apperrors.NewStateError(apperrors.GuardStatusNotCancellable,
			fmt.Sprintf("booking in status %s cannot be cancelled", b.Status))
	}
	return b.transition(BookingCancelled, now)
}

func (b *Booking) BeginPayment(now time.Time) error {
	switch b.Status {
	case BookingCancelled:
		return apperrors.NewStateError(apperrors.GuardBookingCancelled, "booking is cancelled")
	case BookingConfirmed:
		return apperrors.NewStateError(apperrors.GuardAlreadyPaid, "booking is already confirmed")
	case BookingPaymentInProgress:
		return apperrors.NewStateError(apperrors.GuardInvalidTransition, "payment already in progress")
	}
	return b.transition(BookingPaymentInProgress, now)
}

func (b *Booking) ConfirmPayment(now time.Time) error {
	if b.Status != BookingPaymentInProgress {
		return b.invalidTransition(BookingConfirmed)
	}
	return b.transition(BookingConfirmed, now)
}

func (b *Booking) RevertPayment(now time.Time) error {
	if b.Status != BookingPaymentInProgress {
		return b.invalidTransition(BookingAwaitingPayment)
	}
	return b.transition(BookingAwaitingPayment, now)
}

// AdminValidate forces the booking to CONFIRMED without a payment.
func (b *Booking) AdminValidate(now time.Time) error {
	if b.Status == BookingConfirmed {
		return nil
	}
	return b.transition(BookingConfirmed, now)
}

func (b *Booking) transition(target BookingStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(target) {
		return b.invalidTransition(target)
	}
	b.Status = target
	b.UpdatedAt = now
	return nil
}

func (b *Booking) invalidTransition(target BookingStatus) error {
	return apperrors.NewStateError(apperrors.GuardInvalidTransition,
		fmt.Sprintf("booking cannot move from %s to %s", b.Status, target))
}
