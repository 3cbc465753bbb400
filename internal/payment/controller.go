package payment

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"staybook/internal/domain"
	"staybook/internal/dto"
	apperrors "staybook/internal/errors"
	"staybook/internal/middleware"
	"staybook/internal/web"
)

type UseCase interface {
	Open(ctx context.Context, req OpenRequest) (*domain.Payment, error)
	Capture(ctx context.Context, orderRef string) (*domain.Payment, error)
	Fail(ctx context.Context, orderRef, reason string) (*domain.Payment, error)
	Get(ctx context.Context, caller domain.Caller, paymentID int64) (*domain.Payment, error)
	GetByBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Payment, error)
	List(ctx context.Context, caller domain.Caller) ([]domain.Payment, error)
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

func (c *Controller) Open(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	var req dto.OpenPaymentRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	amount, err := web.ParseAmount("amount", req.Amount)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.Open(r.Context(), OpenRequest{
		Caller:    caller,
		BookingID: req.BookingID,
		OrderRef:  strings.TrimSpace(req.OrderRef),
		PayerRef:  req.PayerRef,
		Amount:    amount,
		Currency:  req.Currency,
	})
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusCreated, dto.NewPaymentResponse(*p))
}

func (c *Controller) Capture(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	orderRef, err := orderRefParam(r)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.Capture(r.Context(), orderRef)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewPaymentResponse(*p))
}

func (c *Controller) Fail(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	orderRef, err := orderRefParam(r)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	var req dto.FailPaymentRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.Fail(r.Context(), orderRef, req.Reason)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewPaymentResponse(*p))
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	paymentID, err := web.PathID(r, "paymentId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.Get(r.Context(), caller, paymentID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewPaymentResponse(*p))
}

func (c *Controller) GetByBooking(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	bookingID, err := web.PathID(r, "bookingId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	p, err := c.useCase.GetByBooking(r.Context(), caller, bookingID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewPaymentResponse(*p))
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	payments, err := c.useCase.List(r.Context(), caller)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewPaymentResponses(payments))
}

func orderRefParam(r *http.Request) (string, error) {
	orderRef := strings.TrimSpace(chi.URLParam(r, "orderRef"))
	if orderRef == "" {
		return "", apperrors.NewValidationError("invalid orderRef", apperrors.ValidationDetail{
			Field:   "orderRef",
			Message: "orderRef is required",
		})
	}
	return orderRef, nil
}
