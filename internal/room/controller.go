package room

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"staybook/internal/domain"
	"staybook/internal/dto"
	apperrors "staybook/internal/errors"
	"staybook/internal/middleware"
	"staybook/internal/web"
)

type UseCase interface {
	List(ctx context.Context, onlyAvailable bool) ([]domain.Room, error)
	Get(ctx context.Context, roomID int64) (*domain.Room, error)
	AvailableBetween(ctx context.Context, stay domain.DateRange) ([]domain.Room, error)
	Create(ctx context.Context, caller domain.Caller, in Input) (*domain.Room, error)
	Update(ctx context.Context, caller domain.Caller, roomID int64, in Input) (*domain.Room, error)
	ToggleAvailability(ctx context.Context, caller domain.Caller, roomID int64, available bool) (*domain.Room, error)
	Delete(ctx context.Context, caller domain.Caller, roomID int64) error
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

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	onlyAvailable := false
	if raw := r.URL.Query().Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.rs.ValidationError(w, traceID, "invalid query parameter", apperrors.ValidationDetail{
				Field:   "available",
				Message: "available must be true or false",
			})
			return
		}
		onlyAvailable = v
	}

	rooms, err := c.useCase.List(r.Context(), onlyAvailable)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewRoomResponses(rooms))
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	roomID, err := web.PathID(r, "roomId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	room, err := c.useCase.Get(r.Context(), roomID)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewRoomResponse(*room))
}

func (c *Controller) AvailableBetween(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)

	start, err := web.ParseDate("start", r.URL.Query().Get("start"))
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	end, err := web.ParseDate("end", r.URL.Query().Get("end"))
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	rooms, err := c.useCase.AvailableBetween(r.Context(), domain.DateRange{Start: start, End: end})
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewRoomResponses(rooms))
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	in, err := decodeInput(w, r)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	room, err := c.useCase.Create(r.Context(), caller, in)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusCreated, dto.NewRoomResponse(*room))
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	roomID, err := web.PathID(r, "roomId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	in, err := decodeInput(w, r)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	room, err := c.useCase.Update(r.Context(), caller, roomID, in)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewRoomResponse(*room))
}

func (c *Controller) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	roomID, err := web.PathID(r, "roomId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	var req dto.AvailabilityRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	room, err := c.useCase.ToggleAvailability(r.Context(), caller, roomID, req.Available)
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	c.rs.JSON(w, http.StatusOK, dto.NewRoomResponse(*room))
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.rs.Trace(r)
	caller, _ := middleware.CallerFrom(r.Context())

	roomID, err := web.PathID(r, "roomId")
	if err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}

	if err := c.useCase.Delete(r.Context(), caller, roomID); err != nil {
		c.rs.Error(w, traceID, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, error) {
	var req dto.RoomRequest
	if err := web.DecodeJSON(w, r, &req); err != nil {
		return Input{}, err
	}
	price, err := web.ParseAmount("nightlyPrice", req.NightlyPrice)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Title:        req.Title,
		Description:  req.Description,
		NightlyPrice: price,
		Capacity:     req.Capacity,
		Available:    req.Available,
	}, nil
}
