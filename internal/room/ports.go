package room

import (
	"context"

	"staybook/internal/domain"
)

// Cache holds catalog listings. Implementations swallow their own failures.
type Cache interface {
	Rooms(ctx context.Context, onlyAvailable bool) ([]domain.Room, bool)
	StoreRooms(ctx context.Context, onlyAvailable bool, rooms []domain.Room)
	Invalidate(ctx context.Context)
}
