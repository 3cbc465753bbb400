package availability

import (
	"context"
	"fmt"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

// Index answers "is this room free for these nights" against the bookings
// visible through a store. Run it on a transaction-bound store, after the room
// row is locked, when the answer guards a write.
type Index struct{}

func NewIndex() *Index {
	return &Index{}
}

// FindConflicts returns the occupying bookings of roomID that overlap stay.
// excludeBookingID of 0 excludes nothing.
func (i *Index) FindConflicts(ctx context.Context, store storage.Store, roomID int64, stay domain.DateRange, excludeBookingID int64) ([]domain.Booking, error) {
	conflicts, err := store.Bookings().FindActiveOverlapping(ctx, roomID, stay, excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("finding conflicting bookings: %w", err)
	}
	return conflicts, nil
}

// EnsureFree returns a ConflictError when any occupying booking overlaps stay.
func (i *Index) EnsureFree(ctx context.Context, store storage.Store, roomID int64, stay domain.DateRange, excludeBookingID int64) error {
	conflicts, err := i.FindConflicts(ctx, store, roomID, stay, excludeBookingID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("room %d is already booked for %s", roomID, stay))
	}
	return nil
}

// AvailableRooms lists rooms flagged available that have no occupying
// booking overlapping stay.
func (i *Index) AvailableRooms(ctx context.Context, store storage.Store, stay domain.DateRange) ([]domain.Room, error) {
	rooms, err := store.Rooms().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}

	free := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		conflicts, err := i.FindConflicts(ctx, store, room.ID, stay, 0)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			free = append(free, room)
		}
	}
	return free, nil
}
