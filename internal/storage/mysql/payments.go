package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"staybook/internal/domain"
	apperrors "staybook/internal/errors"
)

const joinedPaymentColumns = `p.id, p.bookingId, p.orderRef, p.payerRef, p.amount, p.currency,
	       p.status, p.errorDetail, p.paidAt, p.createdAt, p.updatedAt`

const paymentSelect = `SELECT ` + joinedPaymentColumns + ` FROM Payments p`

// nullablePayment scans a payment that may be absent from a LEFT JOIN.
type nullablePayment struct {
	id          sql.NullInt64
	bookingID   sql.NullInt64
	orderRef    sql.NullString
	payerRef    sql.NullString
	amount      decimal.NullDecimal
	currency    sql.NullString
	status      sql.NullString
	errorDetail sql.NullString
	paidAt      sql.NullTime
	createdAt   sql.NullTime
	updatedAt   sql.NullTime
}

func (n *nullablePayment) dest() []any {
	return []any{
		&n.id, &n.bookingID, &n.orderRef, &n.payerRef, &n.amount, &n.currency,
		&n.status, &n.errorDetail, &n.paidAt, &n.createdAt, &n.updatedAt,
	}
}

func (n *nullablePayment) toDomain() *domain.Payment {
	if !n.id.Valid {
		return nil
	}
	p := &domain.Payment{
		ID:          n.id.Int64,
		BookingID:   n.bookingID.Int64,
		OrderRef:    n.orderRef.String,
		PayerRef:    n.payerRef.String,
		Amount:      n.amount.Decimal,
		Currency:    n.currency.String,
		Status:      domain.PaymentStatus(n.status.String),
		ErrorDetail: n.errorDetail.String,
		CreatedAt:   n.createdAt.Time,
		UpdatedAt:   n.updatedAt.Time,
	}
	if n.paidAt.Valid {
		paidAt := n.paidAt.Time
		p.PaidAt = &paidAt
	}
	return p
}

type paymentRepository struct {
	q querier
}

func (r *paymentRepository) findOne(ctx context.Context, query string, arg any, notFound string) (*domain.Payment, error) {
	var row nullablePayment
	err := r.q.QueryRowContext(ctx, query, arg).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying payment: %w", err)
	}
	return row.toDomain(), nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.findOne(ctx, paymentSelect+` WHERE p.id = ?`, id,
		fmt.Sprintf("payment with id %d not found", id))
}

func (r *paymentRepository) FindByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return r.findOne(ctx, paymentSelect+` WHERE p.orderRef = ?`, orderRef,
		fmt.Sprintf("payment with order reference %s not found", orderRef))
}

func (r *paymentRepository) FindByOrderRefForUpdate(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return r.findOne(ctx, paymentSelect+` WHERE p.orderRef = ? FOR UPDATE`, orderRef,
		fmt.Sprintf("payment with order reference %s not found", orderRef))
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return r.findOne(ctx, paymentSelect+` WHERE p.bookingId = ?`, bookingID,
		fmt.Sprintf("payment for booking %d not found", bookingID))
}

func (r *paymentRepository) FindByBookingIDForUpdate(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return r.findOne(ctx, paymentSelect+` WHERE p.bookingId = ? FOR UPDATE`, bookingID,
		fmt.Sprintf("payment for booking %d not found", bookingID))
}

func (r *paymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.q.QueryContext(ctx, paymentSelect+` ORDER BY p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var row nullablePayment
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, *row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	stamp(&p.CreatedAt, &p.UpdatedAt)

	result, err := r.q.ExecContext(ctx, `
		INSERT INTO Payments (bookingId, orderRef, payerRef, amount, currency, status, errorDetail,
		                      paidAt, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.OrderRef, p.PayerRef, p.Amount, p.Currency, string(p.Status),
		nullString(p.ErrorDetail), p.PaidAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translateWriteError("inserting payment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	p.ID = id
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE Payments
		SET orderRef = ?, payerRef = ?, amount = ?, currency = ?, status = ?, errorDetail = ?,
		    paidAt = ?, updatedAt = ?
		WHERE id = ?`,
		p.OrderRef, p.PayerRef, p.Amount, p.Currency, string(p.Status), nullString(p.ErrorDetail),
		p.PaidAt, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return translateWriteError("updating payment", err)
	}
	return requireAffected(result, fmt.Sprintf("payment with id %d not found", p.ID))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
