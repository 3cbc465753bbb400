package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/notify"
	"staybook/internal/pricing"
	"staybook/internal/storage/memory"
)

var (
	client = domain.Caller{UserID: 7, Role: domain.RoleClient}
	other  = domain.Caller{UserID: 8, Role: domain.RoleClient}
	admin  = domain.Caller{UserID: 1, Role: domain.RoleAdmin}
)

type dispatched struct {
	event   notify.Event
	booking domain.Booking
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []dispatched
}

func (n *recordingNotifier) Dispatch(event notify.Event, booking domain.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, dispatched{event: event, booking: booking})
}

func (n *recordingNotifier) Events() []dispatched {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dispatched(nil), n.events...)
}

type fixture struct {
	store    *memory.Store
	clock    *clock.Fixed
	notifier *recordingNotifier
	logs     *observer.ObservedLogs
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	f := &fixture{
		store:    memory.NewStore(),
		clock:    clock.NewFixed(time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)),
		notifier: &recordingNotifier{},
		logs:     logs,
	}
	f.svc = NewService(
		f.store,
		availability.NewIndex(),
		pricing.NewCalculator(pricing.DefaultChildRate),
		f.notifier,
		f.clock,
		domain.DefaultBookingPolicy(),
		zap.New(core),
	)
	return f
}

func (f *fixture) room(t *testing.T, capacity int, available bool) int64 {
	t.Helper()
	room := &domain.Room{
		Title:        "Sea view",
		NightlyPrice: decimal.NewFromInt(100),
		Capacity:     capacity,
		Available:    available,
	}
	require.NoError(t, f.store.Rooms().Insert(context.Background(), room))
	return room.ID
}

func (f *fixture) booking(t *testing.T, userID, roomID int64, stay domain.DateRange, status domain.BookingStatus) int64 {
	t.Helper()
	b := &domain.Booking{
		UserID:     userID,
		RoomID:     roomID,
		Stay:       stay,
		Guests:     domain.Occupants{Adults: 1},
		TotalPrice: decimal.NewFromInt(100),
		Status:     status,
	}
	require.NoError(t, f.store.Bookings().Insert(context.Background(), b))
	return b.ID
}

func jan(start, end int) domain.DateRange {
	return domain.NewDateRange(clock.Date(2026, time.January, start), clock.Date(2026, time.January, end))
}

func stayRequest(roomID int64, stay domain.DateRange, adults int) domain.StayRequest {
	return domain.StayRequest{RoomID: roomID, Stay: stay, Guests: domain.Occupants{Adults: adults}}
}

func requireGuard(t *testing.T, err error, guard string) {
	t.Helper()
	se, ok := apperrors.IsStateError(err)
	require.True(t, ok, "expected state error, got %v", err)
	assert.Equal(t, guard, se.Guard)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, code, ve.Code)
}

func TestCreate_PricesAndAwaitsPayment(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 4, true)

	req := domain.StayRequest{
		RoomID: roomID,
		Stay:   jan(10, 13),
		Guests: domain.Occupants{Adults: 2, ChildrenTierA: 1, ChildrenTierB: 1},
		Note:   "late arrival",
	}
	b, err := f.svc.Create(context.Background(), client, req)
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.Equal(t, client.UserID, b.UserID)
	assert.Equal(t, domain.BookingAwaitingPayment, b.Status)
	assert.True(t, decimal.RequireFromString("750").Equal(b.TotalPrice), "got %s", b.TotalPrice)

	stored, err := f.store.Bookings().FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "late arrival", stored.Note)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	open := f.room(t, 2, true)
	closed := f.room(t, 2, false)
	f.booking(t, other.UserID, open, jan(10, 12), domain.BookingConfirmed)

	tests := []struct {
		name  string
		req   domain.StayRequest
		check func(t *testing.T, err error)
	}{
		{
			name:  "start in the past",
			req:   stayRequest(open, domain.NewDateRange(clock.Date(2025, time.December, 30), clock.Date(2026, time.January, 2)), 1),
			check: func(t *testing.T, err error) { requireCode(t, err, apperrors.CodeDateRangeInvalid) },
		},
		{
			name:  "end not after start",
			req:   stayRequest(open, jan(20, 20), 1),
			check: func(t *testing.T, err error) { requireCode(t, err, apperrors.CodeDateRangeInvalid) },
		},
		{
			name:  "no adults",
			req:   stayRequest(open, jan(20, 22), 0),
			check: func(t *testing.T, err error) { requireCode(t, err, apperrors.CodeInvalidRequest) },
		},
		{
			name: "over capacity",
			req:  stayRequest(open, jan(20, 22), 3),
			check: func(t *testing.T, err error) {
				requireCode(t, err, apperrors.CodeCapacityExceeded)
			},
		},
		{
			name:  "room closed",
			req:   stayRequest(closed, jan(20, 22), 1),
			check: func(t *testing.T, err error) { requireGuard(t, err, apperrors.GuardResourceUnavailable) },
		},
		{
			name: "overlaps confirmed booking",
			req:  stayRequest(open, jan(12, 14), 1),
			check: func(t *testing.T, err error) {
				_, ok := apperrors.IsConflictError(err)
				assert.True(t, ok, "expected conflict, got %v", err)
			},
		},
		{
			name: "unknown room",
			req:  stayRequest(999, jan(20, 22), 1),
			check: func(t *testing.T, err error) {
				_, ok := apperrors.IsNotFoundError(err)
				assert.True(t, ok, "expected not found, got %v", err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), client, tt.req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCreate_AwaitingBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)

	_, err := f.svc.Create(context.Background(), client, stayRequest(roomID, jan(10, 12), 1))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), other, stayRequest(roomID, jan(10, 12), 1))
	require.NoError(t, err)
}

func TestModify_RepricesAndExcludesItself(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 4, true)
	b, err := f.svc.Create(context.Background(), client, stayRequest(roomID, jan(10, 12), 1))
	require.NoError(t, err)

	updated, err := f.svc.Modify(context.Background(), client, b.ID, stayRequest(roomID, jan(10, 13), 2))
	require.NoError(t, err)

	assert.Equal(t, jan(10, 13), updated.Stay)
	assert.Equal(t, 2, updated.Guests.Adults)
	assert.True(t, decimal.NewFromInt(600).Equal(updated.TotalPrice), "got %s", updated.TotalPrice)
	assert.Equal(t, domain.BookingAwaitingPayment, updated.Status)
}

func TestModify_ConflictWithAnotherBooking(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 4, true)
	f.booking(t, other.UserID, roomID, jan(14, 16), domain.BookingPaymentInProgress)
	b, err := f.svc.Create(context.Background(), client, stayRequest(roomID, jan(10, 12), 1))
	require.NoError(t, err)

	_, err = f.svc.Modify(context.Background(), client, b.ID, stayRequest(roomID, jan(10, 14), 1))
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok, "expected conflict, got %v", err)

	stored, err := f.store.Bookings().FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, jan(10, 12), stored.Stay)
}

func TestModify_Guards(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 4, true)
	confirmed := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingConfirmed)
	soon := f.booking(t, client.UserID, roomID, jan(1, 3), domain.BookingAwaitingPayment)
	foreign := f.booking(t, other.UserID, roomID, jan(20, 22), domain.BookingAwaitingPayment)

	_, err := f.svc.Modify(context.Background(), client, confirmed, stayRequest(roomID, jan(10, 13), 1))
	requireGuard(t, err, apperrors.GuardStatusNotModifiable)

	_, err = f.svc.Modify(context.Background(), client, soon, stayRequest(roomID, jan(20, 22), 1))
	requireGuard(t, err, apperrors.GuardCutoffPassed)

	_, err = f.svc.Modify(context.Background(), client, foreign, stayRequest(roomID, jan(20, 23), 1))
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok, "expected forbidden, got %v", err)
}

func TestCancel(t *testing.T) {
	t.Run("awaiting payment", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.room(t, 2, true)
		id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingAwaitingPayment)

		require.NoError(t, f.svc.Cancel(context.Background(), client, id))

		stored, err := f.store.Bookings().FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, stored.Status)

		events := f.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventCancelled, events[0].event)
		assert.Equal(t, id, events[0].booking.ID)
	})

	t.Run("confirmed by admin", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.room(t, 2, true)
		id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingConfirmed)

		require.NoError(t, f.svc.Cancel(context.Background(), admin, id))
	})

	t.Run("payment in progress", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.room(t, 2, true)
		id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingPaymentInProgress)

		err := f.svc.Cancel(context.Background(), client, id)
		requireGuard(t, err, apperrors.GuardStatusNotCancellable)
		assert.Empty(t, f.notifier.Events())
	})

	t.Run("cutoff passed", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.room(t, 2, true)
		id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingConfirmed)

		// 48h before checkout midnight is Jan 10 00:00.
		f.clock.At = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
		err := f.svc.Cancel(context.Background(), client, id)
		requireGuard(t, err, apperrors.GuardCutoffPassed)

		f.clock.At = time.Date(2026, time.January, 9, 23, 59, 0, 0, time.UTC)
		require.NoError(t, f.svc.Cancel(context.Background(), client, id))
	})

	t.Run("another user's booking", func(t *testing.T) {
		f := newFixture(t)
		roomID := f.room(t, 2, true)
		id := f.booking(t, other.UserID, roomID, jan(10, 12), domain.BookingAwaitingPayment)

		err := f.svc.Cancel(context.Background(), client, id)
		_, ok := apperrors.IsForbiddenError(err)
		assert.True(t, ok, "expected forbidden, got %v", err)
	})
}

func TestCancelledBookingFreesNights(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)
	id := f.booking(t, other.UserID, roomID, jan(10, 12), domain.BookingConfirmed)

	_, err := f.svc.Create(context.Background(), client, stayRequest(roomID, jan(11, 13), 1))
	require.Error(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), other, id))

	_, err = f.svc.Create(context.Background(), client, stayRequest(roomID, jan(11, 13), 1))
	require.NoError(t, err)
}

func TestAdminValidate(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)
	id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingAwaitingPayment)

	_, err := f.svc.AdminValidate(context.Background(), client, id)
	_, ok := apperrors.IsForbiddenError(err)
	require.True(t, ok, "expected forbidden, got %v", err)

	b, err := f.svc.AdminValidate(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)

	b, err = f.svc.AdminValidate(context.Background(), admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)

	cancelled := f.booking(t, client.UserID, roomID, jan(20, 22), domain.BookingCancelled)
	_, err = f.svc.AdminValidate(context.Background(), admin, cancelled)
	requireGuard(t, err, apperrors.GuardInvalidTransition)
}

func TestAdminReschedule_LogsOverlap(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)
	f.booking(t, other.UserID, roomID, jan(14, 16), domain.BookingConfirmed)
	id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingConfirmed)

	b, err := f.svc.AdminReschedule(context.Background(), admin, id, jan(13, 15))
	require.NoError(t, err)
	assert.Equal(t, jan(13, 15), b.Stay)
	assert.Equal(t, 1, f.logs.FilterMessage("rescheduled booking overlaps another booking").Len())

	_, err = f.svc.AdminReschedule(context.Background(), admin, id, jan(15, 13))
	requireCode(t, err, apperrors.CodeDateRangeInvalid)

	_, err = f.svc.AdminReschedule(context.Background(), client, id, jan(20, 22))
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok, "expected forbidden, got %v", err)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)
	f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingAwaitingPayment)
	f.booking(t, client.UserID, roomID, jan(14, 16), domain.BookingConfirmed)
	f.booking(t, other.UserID, roomID, jan(20, 22), domain.BookingConfirmed)

	mine, err := f.svc.ListMine(context.Background(), client)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.ListAll(context.Background(), client, nil)
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	confirmed := domain.BookingConfirmed
	all, err := f.svc.ListAll(context.Background(), admin, &confirmed)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bogus := domain.BookingStatus("LOST")
	_, err = f.svc.ListAll(context.Background(), admin, &bogus)
	requireCode(t, err, apperrors.CodeInvalidRequest)
}

func TestGet_OwnerOrAdmin(t *testing.T) {
	f := newFixture(t)
	roomID := f.room(t, 2, true)
	id := f.booking(t, client.UserID, roomID, jan(10, 12), domain.BookingAwaitingPayment)

	_, err := f.svc.Get(context.Background(), client, id)
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), admin, id)
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), other, id)
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)

	_, err = f.svc.Get(context.Background(), client, 999)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
