package feedback

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"staybook/internal/domain"
	"staybook/internal/dto"
	"staybook/internal/middleware"
	"staybook/internal/web"
)

type UseCase interface {
	Create(ctx context.Context, caller domain.Caller, bookingID int64, rating int, comment string) (*domain.Feedback, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Feedback, error)
	Respond(ctx context.Context, caller domain.Caller, feedbackID int64, response string) (*domain.Feedback, error)
}

type Controller struct {
	useCase UseCase
	rs      *web.Responder
}

func NewController(useCase UseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		rs:      web.NewResponder(logger),
	}
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	var req dto.FeedbackRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	f, err := c.useCase.Create(r.Context(), caller, req.BookingID, req.Rating, req.Comment)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusCreated, dto.NewFeedbackResponse(*f))
}

func (c *Controller) ListByRoom(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	roomID, err := web.PathID(r, "roomId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	feedbacks, err := c.useCase.ListByRoom(r.Context(), roomID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewFeedbackResponses(feedbacks))
}

func (c *Controller) Respond(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	feedbackID, err := web.PathID(r, "feedbackId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	var req dto.FeedbackReplyRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	f, err := c.useCase.Respond(r.Context(), caller, feedbackID, req.Response)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewFeedbackResponse(*f))
}
