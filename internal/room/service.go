package room

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

// Input carries the editable fields of a room. A nil Available keeps the
// current flag on update and defaults to true on create.
type Input struct {
	Title        string
	Description  string
	NightlyPrice decimal.Decimal
	Capacity     int
	Available    *bool
}

type Service struct {
	store  storage.Store
	index  *availability.Index
	cache  Cache
	clock  clock.Clock
	policy domain.BookingPolicy
	logger *zap.Logger
}

func NewService(store storage.Store, index *availability.Index, cache Cache, clk clock.Clock, policy domain.BookingPolicy, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		index:  index,
		cache:  cache,
		clock:  clk,
		policy: policy,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, onlyAvailable bool) ([]domain.Room, error) {
	if rooms, ok := s.cache.Rooms(ctx, onlyAvailable); ok {
		return rooms, nil
	}

	rooms, err := s.store.Rooms().List(ctx, onlyAvailable)
	if err != nil {
		return nil, err
	}
	s.cache.StoreRooms(ctx, onlyAvailable, rooms)
	return rooms, nil
}

func (s *Service) Get(ctx context.Context, roomID int64) (*domain.Room, error) {
	return s.store.Rooms().FindByID(ctx, roomID)
}

// AvailableBetween lists open rooms with no occupying booking in stay.
func (s *Service) AvailableBetween(ctx context.Context, stay domain.DateRange) ([]domain.Room, error) {
	if err := stay.Validate(s.clock.Today(), s.policy.MaxNights); err != nil {
		return nil, err
	}
	return s.index.AvailableRooms(ctx, s.store, stay)
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in Input) (*domain.Room, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}

	now := s.clock.Now()
	room := domain.Room{
		Title:        in.Title,
		Description:  in.Description,
		NightlyPrice: in.NightlyPrice,
		Capacity:     in.Capacity,
		Available:    in.Available == nil || *in.Available,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Rooms().Insert(ctx, &room); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("room created", zap.Int64("roomId", room.ID), zap.String("title", room.Title))
	return &room, nil
}

// Update changes a room's details. Existing bookings keep the price they were
// created with.
func (s *Service) Update(ctx context.Context, caller domain.Caller, roomID int64, in Input) (*domain.Room, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}

	var updated domain.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		room, err := tx.Rooms().FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		room.Title = in.Title
		room.Description = in.Description
		room.NightlyPrice = in.NightlyPrice
		room.Capacity = in.Capacity
		if in.Available != nil {
			room.Available = *in.Available
		}
		room.UpdatedAt = s.clock.Now()
		if err := room.Validate(); err != nil {
			return err
		}
		if err := tx.Rooms().Update(ctx, room); err != nil {
			return err
		}
		updated = *room
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("room updated", zap.Int64("roomId", roomID))
	return &updated, nil
}

func (s *Service) ToggleAvailability(ctx context.Context, caller domain.Caller, roomID int64, available bool) (*domain.Room, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}

	var updated domain.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		room, err := tx.Rooms().FindByIDForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		room.Available = available
		room.UpdatedAt = s.clock.Now()
		if err := tx.Rooms().Update(ctx, room); err != nil {
			return err
		}
		updated = *room
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("room availability changed", zap.Int64("roomId", roomID), zap.Bool("available", available))
	return &updated, nil
}

// Delete removes a room that holds no occupying booking.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, roomID int64) error {
	if !caller.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if _, err := tx.Rooms().FindByIDForUpdate(ctx, roomID); err != nil {
			return err
		}
		held, err := s.index.FindConflicts(ctx, tx, roomID, allTime, 0)
		if err != nil {
			return err
		}
		if len(held) > 0 {
			return apperrors.NewConflictError(fmt.Sprintf("room %d still has %d active bookings", roomID, len(held)))
		}
		return tx.Rooms().Delete(ctx, roomID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("room deleted", zap.Int64("roomId", roomID))
	return nil
}

var allTime = domain.DateRange{
	Start: clock.Date(1, time.January, 1),
	End:   clock.Date(9999, time.December, 31),
}
