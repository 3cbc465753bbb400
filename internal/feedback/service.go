package feedback

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"staybook/internal/clock"
	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

const maxTextLength = 1000

type Service struct {
	store  storage.Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(store storage.Store, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{store: store, clock: clk, logger: logger}
}

// Create records the guest's rating of a stay. Only the booking owner may
// leave feedback, once, and only for a booking that holds its nights.
func (s *Service) Create(ctx context.Context, caller domain.Caller, bookingID int64, rating int, comment string) (*domain.Feedback, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return nil, err
	}
	if err := validateText("comment", comment); err != nil {
		return nil, err
	}

	var created domain.Feedback
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != caller.UserID {
			return apperrors.NewForbiddenError("booking belongs to another user")
		}
		if !b.Status.AllowsFeedback() {
			return apperrors.NewStateError(apperrors.GuardFeedbackNotAllowed,
				fmt.Sprintf("feedback is not accepted for a booking in status %s", b.Status))
		}

		exists, err := tx.Feedbacks().ExistsForBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflictError(fmt.Sprintf("booking %d already has feedback", bookingID))
		}

		now := s.clock.Now()
		created = domain.Feedback{
			UserID:    caller.UserID,
			RoomID:    b.RoomID,
			BookingID: b.ID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Feedbacks().Insert(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("feedback created",
		zap.Int64("feedbackId", created.ID),
		zap.Int64("bookingId", bookingID),
		zap.Int("rating", rating),
	)
	return &created, nil
}

func (s *Service) ListByRoom(ctx context.Context, roomID int64) ([]domain.Feedback, error) {
	if _, err := s.store.Rooms().FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.store.Feedbacks().ListByRoom(ctx, roomID)
}

// Respond attaches the hotel's reply to a feedback, replacing any earlier one.
func (s *Service) Respond(ctx context.Context, caller domain.Caller, feedbackID int64, response string) (*domain.Feedback, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin role required")
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, apperrors.NewValidationError("invalid response", apperrors.ValidationDetail{
			Field:   "response",
			Message: "response is required",
		})
	}
	if err := validateText("response", response); err != nil {
		return nil, err
	}

	f, err := s.store.Feedbacks().FindByID(ctx, feedbackID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	f.Response = &response
	f.RespondedAt = &now
	f.UpdatedAt = now
	if err := s.store.Feedbacks().Update(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("feedback answered", zap.Int64("feedbackId", feedbackID), zap.Int64("adminId", caller.UserID))
	return f, nil
}

func validateText(field, value string) error {
	if utf8.RuneCountInString(value) > maxTextLength {
		return apperrors.NewValidationError("invalid "+field, apperrors.ValidationDetail{
			Field:   field,
			Message: fmt.Sprintf("%s must not exceed %d characters", field, maxTextLength),
		})
	}
	return nil
}
