package dto

import (
	"time"

	"staybook/internal/domain"
)

type BookingRequest struct {
	RoomID        int64  `json:"roomId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Adults        int    `json:"adults"`
	ChildrenTierA int    `json:"childrenTierA"`
	ChildrenTierB int    `json:"childrenTierB"`
	Note          string `json:"note"`
}

type RescheduleRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type BookingResponse struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"userId"`
	RoomID        int64            `json:"roomId"`
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	Nights        int              `json:"nights"`
	Adults        int              `json:"adults"`
	ChildrenTierA int              `json:"childrenTierA"`
	ChildrenTierB int              `json:"childrenTierB"`
	Note          string           `json:"note,omitempty"`
	TotalPrice    string           `json:"totalPrice"`
	Status        string           `json:"status"`
	Payment       *PaymentResponse `json:"payment,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func NewBookingResponse(b domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		StartDate:     b.Stay.Start.Format(time.DateOnly),
		EndDate:       b.Stay.End.Format(time.DateOnly),
		Nights:        b.Stay.Nights(),
		Adults:        b.Guests.Adults,
		ChildrenTierA: b.Guests.ChildrenTierA,
		ChildrenTierB: b.Guests.ChildrenTierB,
		Note:          b.Note,
		TotalPrice:    b.TotalPrice.StringFixed(2),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Payment != nil {
		p := NewPaymentResponse(*b.Payment)
		resp.Payment = &p
	}
	return resp
}

func NewBookingResponses(bookings []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, NewBookingResponse(b))
	}
	return out
}
