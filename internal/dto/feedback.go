package dto

import (
	"time"

	"staybook/internal/domain"
)

type FeedbackRequest struct {
	BookingID int64  `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type FeedbackReplyRequest struct {
	Response string `json:"response"`
}

type FeedbackResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	RoomID      int64      `json:"roomId"`
	BookingID   int64      `json:"bookingId"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment"`
	Response    *string    `json:"response,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewFeedbackResponse(f domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:          f.ID,
		UserID:      f.UserID,
		RoomID:      f.RoomID,
		BookingID:   f.BookingID,
		Rating:      f.Rating,
		Comment:     f.Comment,
		Response:    f.Response,
		RespondedAt: f.RespondedAt,
		CreatedAt:   f.CreatedAt,
	}
}

func NewFeedbackResponses(feedbacks []domain.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(feedbacks))
	for _, f := range feedbacks {
		out = append(out, NewFeedbackResponse(f))
	}
	return out
}
