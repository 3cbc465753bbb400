package domain

import (
	"time"

	apperrors "staybook/internal/errors"
)

const (
	MinRating = 1
	MaxRating = 10
)

type Feedback struct {
	ID          int64
	UserID      int64
	RoomID      int64
	BookingID   int64
	Rating      int
	Comment     string
	Response    *string
	RespondedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.NewValidationError("invalid rating", apperrors.ValidationDetail{
			Field:   "rating",
			Message: "rating must be between 1 and 10",
		})
	}
	return nil
}
