package dto

import (
	"time"

	"staybook/internal/domain"
)

type RoomRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	NightlyPrice string `json:"nightlyPrice"`
	Capacity     int    `json:"capacity"`
	Available    *bool  `json:"available"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

type RoomResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	NightlyPrice string    `json:"nightlyPrice"`
	Capacity     int       `json:"capacity"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewRoomResponse(r domain.Room) RoomResponse {
	return RoomResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		NightlyPrice: r.NightlyPrice.StringFixed(2),
		Capacity:     r.Capacity,
		Available:    r.Available,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func NewRoomResponses(rooms []domain.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, NewRoomResponse(r))
	}
	return out
}
