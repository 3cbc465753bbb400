package dto

import (
	"time"

	"staybook/internal/domain"
)

type OpenPaymentRequest struct {
	BookingID int64  `json:"bookingId"`
	OrderRef  string `json:"orderRef"`
	PayerRef  string `json:"payerRef"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

type FailPaymentRequest struct {
	Reason string `json:"reason"`
}

type PaymentResponse struct {
	ID          int64      `json:"id"`
	BookingID   int64      `json:"bookingId"`
	OrderRef    string     `json:"orderRef"`
	PayerRef    string     `json:"payerRef,omitempty"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewPaymentResponse(p domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		OrderRef:    p.OrderRef,
		PayerRef:    p.PayerRef,
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		Status:      string(p.Status),
		ErrorDetail: p.ErrorDetail,
		PaidAt:      p.PaidAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewPaymentResponses(payments []domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}
