package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "staybook/internal/errors"
)

type Room struct {
	ID           int64
	Title        string
	Description  string
	NightlyPrice decimal.Decimal
	Capacity     int
	Available    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r Room) Validate() error {
	var details []apperrors.ValidationDetail

	if r.Title == "" {
		details = append(details, apperrors.ValidationDetail{Field: "title", Message: "title is required"})
	}
	if !r.NightlyPrice.IsPositive() {
		details = append(details, apperrors.ValidationDetail{Field: "nightlyPrice", Message: "nightlyPrice must be positive"})
	}
	if r.Capacity < 1 {
		details = append(details, apperrors.ValidationDetail{Field: "capacity", Message: "capacity must be at least 1"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid room", details...)
	}
	return nil
}

// Fits reports whether the occupants fit the room's capacity.
func (r Room) Fits(guests Occupants) bool {
	return guests.Total() <= r.Capacity
}
