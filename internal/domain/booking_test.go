package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "staybook/internal/errors"
)

func newBooking(status BookingStatus, start, end int) *Booking {
	return &Booking{
		ID:     1,
		UserID: 7,
		RoomID: 3,
		Stay:   NewDateRange(day(start), day(end)),
		Guests: Occupants{Adults: 2},
		Status: status,
	}
}

func requireGuard(t *testing.T, err error, guard string) {
	t.Helper()
	se, ok := apperrors.IsStateError(err)
	require.True(t, ok, "expected state error, got %v", err)
	assert.Equal(t, guard, se.Guard)
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, BookingAwaitingPayment.CanTransitionTo(BookingPaymentInProgress))
	assert.True(t, BookingPaymentInProgress.CanTransitionTo(BookingConfirmed))
	assert.True(t, BookingPaymentInProgress.CanTransitionTo(BookingAwaitingPayment))
	assert.True(t, BookingConfirmed.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingConfirmed.CanTransitionTo(BookingAwaitingPayment))
	assert.False(t, BookingCancelled.CanTransitionTo(BookingAwaitingPayment))
	assert.True(t, BookingCancelled.IsTerminal())
	assert.False(t, BookingStatus("EXPIRED").IsValid())
}

func TestBookingStatus_Occupies(t *testing.T) {
	assert.False(t, BookingAwaitingPayment.Occupies())
	assert.True(t, BookingPaymentInProgress.Occupies())
	assert.True(t, BookingConfirmed.Occupies())
	assert.False(t, BookingCancelled.Occupies())
}

func TestBooking_BeforeCutoff(t *testing.T) {
	policy := DefaultBookingPolicy()
	b := newBooking(BookingAwaitingPayment, 10, 13)

	// checkout is Jan 13 00:00, so the last permitted instant is just before Jan 11 00:00
	assert.True(t, b.BeforeCutoff(time.Date(2026, time.January, 10, 23, 59, 0, 0, time.UTC), policy))
	assert.False(t, b.BeforeCutoff(time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC), policy))
	assert.False(t, b.BeforeCutoff(time.Date(2026, time.January, 12, 8, 0, 0, 0, time.UTC), policy))
}

func TestBooking_BeforeCutoff_UsesPolicyLocation(t *testing.T) {
	policy := DefaultBookingPolicy()
	policy.Location = time.FixedZone("UTC+1", 3600)
	b := newBooking(BookingAwaitingPayment, 10, 13)

	// checkout midnight in UTC+1 is Jan 12 23:00 UTC
	assert.False(t, b.BeforeCutoff(time.Date(2026, time.January, 10, 23, 30, 0, 0, time.UTC), policy))
	assert.True(t, b.BeforeCutoff(time.Date(2026, time.January, 10, 22, 30, 0, 0, time.UTC), policy))
}

func TestBooking_Cancel(t *testing.T) {
	policy := DefaultBookingPolicy()
	now := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

	b := newBooking(BookingAwaitingPayment, 10, 13)
	require.NoError(t, b.Cancel(now, policy))
	assert.Equal(t, BookingCancelled, b.Status)
	assert.Equal(t, now, b.UpdatedAt)

	confirmed := newBooking(BookingConfirmed, 10, 13)
	require.NoError(t, confirmed.Cancel(now, policy))
	assert.Equal(t, BookingCancelled, confirmed.Status)
}

func TestBooking_Cancel_InProgressRejected(t *testing.T) {
	b := newBooking(BookingPaymentInProgress, 10, 13)

	err := b.Cancel(time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC), DefaultBookingPolicy())
	requireGuard(t, err, apperrors.GuardStatusNotCancellable)
	assert.Equal(t, BookingPaymentInProgress, b.Status)
}

func TestBooking_Cancel_CutoffWinsOverStatus(t *testing.T) {
	now := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

	for _, status := range []BookingStatus{BookingAwaitingPayment, BookingPaymentInProgress, BookingConfirmed, BookingCancelled} {
		b := newBooking(status, 10, 13)
		err := b.Cancel(now, DefaultBookingPolicy())
		requireGuard(t, err, apperrors.GuardCutoffPassed)
		assert.Equal(t, status, b.Status)
	}
}

func TestBooking_CheckModifiable(t *testing.T) {
	policy := DefaultBookingPolicy()
	now := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, newBooking(BookingAwaitingPayment, 10, 13).CheckModifiable(now, policy))
	requireGuard(t, newBooking(BookingConfirmed, 10, 13).CheckModifiable(now, policy), apperrors.GuardStatusNotModifiable)
	requireGuard(t, newBooking(BookingPaymentInProgress, 10, 13).CheckModifiable(now, policy), apperrors.GuardStatusNotModifiable)
	requireGuard(t, newBooking(BookingAwaitingPayment, 2, 3).CheckModifiable(now, policy), apperrors.GuardCutoffPassed)
}

func TestBooking_PaymentTransitions(t *testing.T) {
	now := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)
	b := newBooking(BookingAwaitingPayment, 10, 13)

	require.NoError(t, b.BeginPayment(now))
	assert.Equal(t, BookingPaymentInProgress, b.Status)

	require.NoError(t, b.RevertPayment(now))
	assert.Equal(t, BookingAwaitingPayment, b.Status)

	require.NoError(t, b.BeginPayment(now))
	require.NoError(t, b.ConfirmPayment(now))
	assert.Equal(t, BookingConfirmed, b.Status)

	requireGuard(t, b.ConfirmPayment(now), apperrors.GuardInvalidTransition)
	requireGuard(t, b.RevertPayment(now), apperrors.GuardInvalidTransition)
	requireGuard(t, b.BeginPayment(now), apperrors.GuardAlreadyPaid)
}

func TestBooking_BeginPayment_Cancelled(t *testing.T) {
	b := newBooking(BookingCancelled, 10, 13)
	requireGuard(t, b.BeginPayment(time.Now()), apperrors.GuardBookingCancelled)
}

func TestBooking_AdminValidate(t *testing.T) {
	now := time.Now()

	awaiting := newBooking(BookingAwaitingPayment, 10, 13)
	require.NoError(t, awaiting.AdminValidate(now))
	assert.Equal(t, BookingConfirmed, awaiting.Status)

	inProgress := newBooking(BookingPaymentInProgress, 10, 13)
	require.NoError(t, inProgress.AdminValidate(now))
	assert.Equal(t, BookingConfirmed, inProgress.Status)

	confirmed := newBooking(BookingConfirmed, 10, 13)
	assert.NoError(t, confirmed.AdminValidate(now))

	cancelled := newBooking(BookingCancelled, 10, 13)
	requireGuard(t, cancelled.AdminValidate(now), apperrors.GuardInvalidTransition)
}

func TestStayRequest_Validate(t *testing.T) {
	policy := DefaultBookingPolicy()
	req := StayRequest{
		RoomID: 1,
		Stay:   NewDateRange(day(10), day(13)),
		Guests: Occupants{Adults: 2, ChildrenTierA: 1},
	}
	assert.NoError(t, req.Validate(day(1), policy))

	noAdults := req
	noAdults.Guests.Adults = 0
	_, ok := apperrors.IsValidationError(noAdults.Validate(day(1), policy))
	assert.True(t, ok)

	longNote := req
	longNote.Note = strings.Repeat("x", 501)
	ve, ok := apperrors.IsValidationError(longNote.Validate(day(1), policy))
	require.True(t, ok)
	assert.Equal(t, "note", ve.Details[0].Field)
}

func TestOccupants_Total(t *testing.T) {
	assert.Equal(t, 5, Occupants{Adults: 2, ChildrenTierA: 2, ChildrenTierB: 1}.Total())
}

func TestCaller_CanAccess(t *testing.T) {
	owner := Caller{UserID: 7, Role: RoleClient}
	other := Caller{UserID: 8, Role: RoleClient}
	admin := Caller{UserID: 1, Role: RoleAdmin}

	assert.True(t, owner.CanAccess(7))
	assert.False(t, other.CanAccess(7))
	assert.True(t, admin.CanAccess(7))
}
