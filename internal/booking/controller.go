package booking

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"staybook/internal/domain"
	"staybook/internal/dto"
	apperrors "staybook/internal/errors"
	"staybook/internal/middleware"
	"staybook/internal/web"
)

type UseCase interface {
	Create(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error)
	Modify(ctx context.Context, caller domain.Caller, bookingID int64, req domain.StayRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, caller domain.Caller, bookingID int64) error
	AdminValidate(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error)
	AdminReschedule(ctx context.Context, caller domain.Caller, bookingID int64, stay domain.DateRange) (*domain.Booking, error)
	Get(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Booking, error)
	ListAll(ctx context.Context, caller domain.Caller, status *domain.BookingStatus) ([]domain.Booking, error)
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

	var req dto.BookingRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	stay, err := toStayRequest(req)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	b, err := c.useCase.Create(r.Context(), caller, stay)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusCreated, dto.NewBookingResponse(*b))
}

func (c *Controller) Modify(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	var req dto.BookingRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	stay, err := toStayRequest(req)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	b, err := c.useCase.Modify(r.Context(), caller, bookingID, stay)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponse(*b))
}

func (c *Controller) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	if err := c.useCase.Cancel(r.Context(), caller, bookingID); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) Validate(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	b, err := c.useCase.AdminValidate(r.Context(), caller, bookingID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponse(*b))
}

func (c *Controller) Reschedule(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	var req dto.RescheduleRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	stay, err := toDateRange(req.StartDate, req.EndDate)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	b, err := c.useCase.AdminReschedule(r.Context(), caller, bookingID, stay)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponse(*b))
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	b, err := c.useCase.Get(r.Context(), caller, bookingID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponse(*b))
}

func (c *Controller) ListMine(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookings, err := c.useCase.ListMine(r.Context(), caller)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponses(bookings))
}

func (c *Controller) ListAll(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	var status *domain.BookingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.BookingStatus(raw)
		status = &s
	}

	bookings, err := c.useCase.ListAll(r.Context(), caller, status)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewBookingResponses(bookings))
}

func toStayRequest(req dto.BookingRequest) (domain.StayRequest, error) {
	if req.RoomID <= 0 {
		return domain.StayRequest{}, apperrors.NewValidationError("invalid roomId", apperrors.ValidationDetail{
			Field:   "roomId",
			Message: "roomId must be a positive integer",
		})
	}
	stay, err := toDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return domain.StayRequest{}, err
	}
	return domain.StayRequest{
		RoomID: req.RoomID,
		Stay:   stay,
		Guests: domain.Occupants{
			Adults:        req.Adults,
			ChildrenTierA: req.ChildrenTierA,
			ChildrenTierB: req.ChildrenTierB,
		},
		Note: req.Note,
	}, nil
}

func toDateRange(startRaw, endRaw string) (domain.DateRange, error) {
	start, err := web.ParseDate("startDate", startRaw)
	if err != nil {
		return domain.DateRange{}, err
	}
	end, err := web.ParseDate("endDate", endRaw)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{Start: start, End: end}, nil
}
