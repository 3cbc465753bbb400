package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
	"staybook/internal/storage"
)

// bookingSelect returns bookings with their payment, if any, attached.
const bookingSelect = `
	SELECT b.id, b.userId, b.roomId, b.startDate, b.endDate,
	       b.adults, b.childrenTierA, b.childrenTierB, b.note,
	       b.totalPrice, b.status, b.createdAt, b.updatedAt,
	       ` + joinedPaymentColumns + `
	FROM Bookings b
	LEFT JOIN Payments p ON p.bookingId = b.id`

type bookingRepository struct {
	q querier
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b       domain.Booking
		status  string
		payment nullablePayment
	)
	dest := []any{
		&b.ID, &b.UserID, &b.RoomID, &b.Stay.Start, &b.Stay.End,
		&b.Guests.Adults, &b.Guests.ChildrenTierA, &b.Guests.ChildrenTierB, &b.Note,
		&b.TotalPrice, &status, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, payment.dest()...)...); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.Payment = payment.toDomain()
	return &b, nil
}

func (r *bookingRepository) findOne(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking by id: %w", err)
	}
	return b, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.findOne(ctx, bookingSelect+` WHERE b.id = ?`, id)
}

// FindByIDForUpdate locks only the booking row; the payment row is locked
// separately, after it.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.findOne(ctx, bookingSelect+` WHERE b.id = ? FOR UPDATE OF b`, id)
}

func (r *bookingRepository) FindActiveOverlapping(ctx context.Context, roomID int64, stay domain.DateRange, excludeID int64) ([]domain.Booking, error) {
	query := bookingSelect + `
		WHERE b.roomId = ?
		  AND b.status IN (` + placeholders(len(domain.OccupyingStatuses)) + `)
		  AND b.startDate <= ?
		  AND b.endDate >= ?
		  AND b.id <> ?
		ORDER BY b.id`

	args := []any{roomID}
	for _, s := range domain.OccupyingStatuses {
		args = append(args, string(s))
	}
	args = append(args, dateValue(stay.End), dateValue(stay.Start), excludeID)

	return r.query(ctx, "finding overlapping bookings", query, args...)
}

func (r *bookingRepository) List(ctx context.Context, filter storage.BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != nil {
		where = append(where, "b.userId = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		where = append(where, "b.status = ?")
		args = append(args, string(*filter.Status))
	}

	query := bookingSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY b.id DESC`

	return r.query(ctx, "listing bookings", query, args...)
}

func (r *bookingRepository) query(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bookings, nil
}

func (r *bookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	stamp(&b.CreatedAt, &b.UpdatedAt)

	result, err := r.q.ExecContext(ctx, `
		INSERT INTO Bookings (userId, roomId, startDate, endDate, adults, childrenTierA, childrenTierB,
		                      note, totalPrice, status, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.RoomID, dateValue(b.Stay.Start), dateValue(b.Stay.End),
		b.Guests.Adults, b.Guests.ChildrenTierA, b.Guests.ChildrenTierB,
		b.Note, b.TotalPrice, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("inserting booking", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	b.ID = id
	return nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE Bookings
		SET roomId = ?, startDate = ?, endDate = ?, adults = ?, childrenTierA = ?, childrenTierB = ?,
		    note = ?, totalPrice = ?, status = ?, updatedAt = ?
		WHERE id = ?`,
		b.RoomID, dateValue(b.Stay.Start), dateValue(b.Stay.End),
		b.Guests.Adults, b.Guests.ChildrenTierA, b.Guests.ChildrenTierB,
		b.Note, b.TotalPrice, string(b.Status), b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return translateWriteError("updating booking", err)
	}
	return requireAffected(result, fmt.Sprintf("booking with id %d not found", b.ID))
}

func dateValue(t time.Time) string {
	return t.Format(time.DateOnly)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
