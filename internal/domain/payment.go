package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "staybook/internal/errors"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
	// PaymentRefunded is recorded manually; nothing transitions into it.
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

type Payment struct {
	ID          int64
	BookingID   int64
	OrderRef    string
	PayerRef    string
	Amount      decimal.Decimal
	Currency    string
	Status      PaymentStatus
	ErrorDetail string
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reopen resets a non-paid payment for a fresh attempt under a new order
// reference.
func (p *Payment) Reopen(orderRef, payerRef string, amount decimal.Decimal, currency string, now time.Time) error {
	if p.Status == PaymentPaid {
		return apperrors.NewStateError(apperrors.GuardAlreadyPaid, "booking is already paid")
	}
	p.OrderRef = orderRef
	p.PayerRef = payerRef
	p.Amount = amount
	p.Currency = currency
	p.Status = PaymentPending
	p.ErrorDetail = ""
	p.PaidAt = nil
	p.UpdatedAt = now
	return nil
}

func (p *Payment) MarkPaid(now time.Time) error {
	switch p.Status {
	case PaymentPaid:
		return apperrors.NewDuplicateCaptureError(p.OrderRef)
	case PaymentPending:
	default:
		return apperrors.NewStateError(apperrors.GuardPaymentNotPending,
			fmt.Sprintf("payment in status %s cannot be captured", p.Status))
	}
	paidAt := now
	p.Status = PaymentPaid
	p.PaidAt = &paidAt
	p.UpdatedAt = now
	return nil
}

// MarkFailed records a failed capture. It returns false without error when the
// payment had already failed.
func (p *Payment) MarkFailed(reason string, now time.Time) (bool, error) {
	switch p.Status {
	case PaymentFailed:
		return false, nil
	case PaymentPending:
	default:
		return false, apperrors.NewStateError(apperrors.GuardPaymentSettled,
			fmt.Sprintf("payment in status %s cannot be failed", p.Status))
	}
	p.Status = PaymentFailed
	p.ErrorDetail = reason
	p.UpdatedAt = now
	return true, nil
}
