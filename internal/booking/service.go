package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/notify"
	"staybook/internal/storage"
)

// Service sequences date validation, the availability index, pricing and the
// reservation state machine. Every write runs in one store transaction that
// locks the room row before the conflict query, so two overlapping writes on
// the same room are serialised.
type Service struct {
	store    storage.Store
	index    *availability.Index
	pricer   Pricer
	notifier Notifier
	clock    clock.Clock
	policy   domain.BookingPolicy
	logger   *zap.Logger
}

func NewService(
	store storage.Store,
	index *availability.Index,
	pricer Pricer,
	notifier Notifier,
	clk clock.Clock,
	policy domain.BookingPolicy,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:    store,
		index:    index,
		pricer:   pricer,
		notifier: notifier,
		clock:    clk,
		policy:   policy,
		logger:   logger,
	}
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error) {
	s.logger.Info("create booking started",
		zap.Int64("userId", caller.UserID),
		zap.Int64("roomId", req.RoomID),
		zap.String("stay", req.Stay.String()),
	)

	if err := req.Validate(s.clock.Today(), s.policy); err != nil {
		return nil, err
	}

	var created domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		room, err := s.lockBookableRoom(ctx, tx, req, 0)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created = domain.Booking{
			UserID:     caller.UserID,
			RoomID:     room.ID,
			Stay:       req.Stay,
			Guests:     req.Guests,
			Note:       req.Note,
			TotalPrice: s.pricer.Price(room.NightlyPrice, req.Stay, req.Guests),
			Status:     domain.BookingAwaitingPayment,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Bookings().Insert(ctx, &created)
	})
	if err != nil {
		s.logger.Warn("create booking rejected", zap.Int64("roomId", req.RoomID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("booking created",
		zap.Int64("bookingId", created.ID),
		zap.Int64("roomId", created.RoomID),
		zap.String("totalPrice", created.TotalPrice.String()),
	)
	return &created, nil
}

// Modify replaces the stay of a booking that is still awaiting payment.
// The booking's own nights never conflict with themselves.
func (s *Service) Modify(ctx context.Context, caller domain.Caller, bookingID int64, req domain.StayRequest) (*domain.Booking, error) {
	current, err := s.Get(ctx, caller, bookingID)
	if err != nil {
		return nil, err
	}
	if err := current.CheckModifiable(s.clock.Now(), s.policy); err != nil {
		return nil, err
	}
	if err := req.Validate(s.clock.Today(), s.policy); err != nil {
		return nil, err
	}

	var updated domain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		room, err := s.lockBookableRoom(ctx, tx, req, bookingID)
		if err != nil {
			return err
		}

		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := b.CheckModifiable(now, s.policy); err != nil {
			return err
		}

		b.RoomID = room.ID
		b.Stay = req.Stay
		b.Guests = req.Guests
		b.Note = req.Note
		b.TotalPrice = s.pricer.Price(room.NightlyPrice, req.Stay, req.Guests)
		b.UpdatedAt = now
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		updated = *b
		return nil
	})
	if err != nil {
		s.logger.Warn("modify booking rejected", zap.Int64("bookingId", bookingID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("booking modified",
		zap.Int64("bookingId", updated.ID),
		zap.String("stay", updated.Stay.String()),
		zap.String("totalPrice", updated.TotalPrice.String()),
	)
	return &updated, nil
}

// lockBookableRoom locks the requested room and checks availability flag,
// conflicts and capacity, in that order. excludeID is the booking being
// modified, or 0.
func (s *Service) lockBookableRoom(ctx context.Context, tx storage.Store, req domain.StayRequest, excludeID int64) (*domain.Room, error) {
	room, err := tx.Rooms().FindByIDForUpdate(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Available {
		return nil, apperrors.NewStateError(apperrors.GuardResourceUnavailable,
			fmt.Sprintf("room %d is not open for booking", room.ID))
	}

	if err := s.index.EnsureFree(ctx, tx, room.ID, req.Stay, excludeID); err != nil {
		return nil, err
	}

	if !room.Fits(req.Guests) {
		return nil, apperrors.NewCodedValidationError(apperrors.CodeCapacityExceeded,
			fmt.Sprintf("room %d holds at most %d guests", room.ID, room.Capacity),
			apperrors.ValidationDetail{Field: "adults", Message: fmt.Sprintf("total guests must not exceed %d", room.Capacity)},
		)
	}
	return room, nil
}

func (s *Service) Cancel(ctx context.Context, caller domain.Caller, bookingID int64) error {
	var cancelled domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !caller.CanAccess(b.UserID) {
			return apperrors.NewForbiddenError("booking belongs to another user")
		}
		if err := b.Cancel(s.clock.Now(), s.policy); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		cancelled = *b
		return nil
	})
	if err != nil {
		s.logger.Warn("cancel booking rejected", zap.Int64("bookingId", bookingID), zap.Error(err))
		return err
	}

	s.logger.Info("booking cancelled", zap.Int64("bookingId", bookingID), zap.Int64("by", caller.UserID))
	s.notifier.Dispatch(notify.EventCancelled, cancelled)
	return nil
}

// AdminValidate confirms a booking without going through payment, for
// settlements made offline.
func (s *Service) AdminValidate(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}

	var validated domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := b.AdminValidate(s.clock.Now()); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		validated = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking validated by admin", zap.Int64("bookingId", bookingID), zap.Int64("adminId", caller.UserID))
	return &validated, nil
}

// AdminReschedule moves a booking to new dates without conflict, cutoff or
// price checks. It can create an overlap the rest of the engine would
// reject; such overlaps are logged, not blocked.
func (s *Service) AdminReschedule(ctx context.Context, caller domain.Caller, bookingID int64, stay domain.DateRange) (*domain.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	if stay.Start.IsZero() || stay.End.IsZero() || !stay.End.After(stay.Start) {
		return nil, apperrors.NewCodedValidationError(apperrors.CodeDateRangeInvalid, "invalid date range",
			apperrors.ValidationDetail{Field: "endDate", Message: "endDate must be after startDate"})
	}

	var moved domain.Booking
	var overlaps []domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		b.Stay = stay
		b.UpdatedAt = s.clock.Now()
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		moved = *b

		if b.Status.Occupies() {
			overlaps, err = s.index.FindConflicts(ctx, tx, b.RoomID, stay, b.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking rescheduled by admin",
		zap.Int64("bookingId", bookingID),
		zap.Int64("adminId", caller.UserID),
		zap.String("stay", stay.String()),
	)
	for _, o := range overlaps {
		s.logger.Warn("rescheduled booking overlaps another booking",
			zap.Int64("bookingId", bookingID),
			zap.Int64("overlapsBookingId", o.ID),
			zap.Int64("roomId", o.RoomID),
		)
	}
	return &moved, nil
}

func (s *Service) Get(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error) {
	b, err := s.store.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(b.UserID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another user")
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Booking, error) {
	userID := caller.UserID
	return s.store.Bookings().List(ctx, storage.BookingFilter{UserID: &userID})
}

func (s *Service) ListAll(ctx context.Context, caller domain.Caller, status *domain.BookingStatus) ([]domain.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	if status != nil && !status.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", apperrors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("unknown booking status %q", *status),
		})
	}
	return s.store.Bookings().List(ctx, storage.BookingFilter{Status: status})
}
