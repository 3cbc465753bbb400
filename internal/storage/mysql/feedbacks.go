package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
)

const feedbackColumns = `id, userId, roomId, bookingId, rating, comment, response, respondedAt, createdAt, updatedAt`

type feedbackRepository struct {
	q querier
}

func scanFeedback(row rowScanner) (*domain.Feedback, error) {
	var (
		f           domain.Feedback
		response    sql.NullString
		respondedAt sql.NullTime
	)
	err := row.Scan(
		&f.ID, &f.UserID, &f.RoomID, &f.BookingID, &f.Rating, &f.Comment,
		&response, &respondedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if response.Valid {
		f.Response = &response.String
	}
	if respondedAt.Valid {
		f.RespondedAt = &respondedAt.Time
	}
	return &f, nil
}

func (r *feedbackRepository) FindByID(ctx context.Context, id int64) (*domain.Feedback, error) {
	f, err := scanFeedback(r.q.QueryRowContext(ctx, `SELECT `+feedbackColumns+` FROM Feedbacks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying feedback by id: %w", err)
	}
	return f, nil
}

func (r *feedbackRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM Feedbacks WHERE bookingId = ?)`, bookingID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking feedback for booking: %w", err)
	}
	return exists, nil
}

func (r *feedbackRepository) ListByRoom(ctx context.Context, roomID int64) ([]domain.Feedback, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM Feedbacks WHERE roomId = ? ORDER BY id DESC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing feedbacks: %w", err)
	}
	defer rows.Close()

	feedbacks := []domain.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		feedbacks = append(feedbacks, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedbacks: %w", err)
	}
	return feedbacks, nil
}

func (r *feedbackRepository) Insert(ctx context.Context, f *domain.Feedback) error {
	stamp(&f.CreatedAt, &f.UpdatedAt)

	result, err := r.q.ExecContext(ctx, `
		INSERT INTO Feedbacks (userId, roomId, bookingId, rating, comment, response, respondedAt, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, f.RoomID, f.BookingID, f.Rating, f.Comment, f.Response, f.RespondedAt,
		f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("inserting feedback", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *feedbackRepository) Update(ctx context.Context, f *domain.Feedback) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE Feedbacks SET rating = ?, comment = ?, response = ?, respondedAt = ?, updatedAt = ?
		WHERE id = ?`,
		f.Rating, f.Comment, f.Response, f.RespondedAt, f.UpdatedAt,
		f.ID,
	)
	if err != nil {
		return translateWriteError("updating feedback", err)
	}
	return requireAffected(result, fmt.Sprintf("feedback with id %d not found", f.ID))
}
