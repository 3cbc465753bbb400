package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"staybook/internal/domain"
	"staybook/internal/dto"
	apperrors "staybook/internal/errors"
	"staybook/internal/middleware"
)

type mockUseCase struct {
	UseCase
	CreateFunc  func(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error)
	CancelFunc  func(ctx context.Context, caller domain.Caller, bookingID int64) error
	ListAllFunc func(ctx context.Context, caller domain.Caller, status *domain.BookingStatus) ([]domain.Booking, error)
}

func (m *mockUseCase) Create(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error) {
	return m.CreateFunc(ctx, caller, req)
}

func (m *mockUseCase) Cancel(ctx context.Context, caller domain.Caller, bookingID int64) error {
	return m.CancelFunc(ctx, caller, bookingID)
}

func (m *mockUseCase) ListAll(ctx context.Context, caller domain.Caller, status *domain.BookingStatus) ([]domain.Booking, error) {
	return m.ListAllFunc(ctx, caller, status)
}

func newRouter(c *Controller) http.Handler {
	r := chi.NewRouter()
	r.Post("/bookings", c.Create)
	r.Delete("/bookings/{bookingId}", c.Cancel)
	r.Get("/admin/bookings", c.ListAll)
	return r
}

func serve(t *testing.T, h http.Handler, caller domain.Caller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestController_Create(t *testing.T) {
	var got domain.StayRequest
	uc := &mockUseCase{
		CreateFunc: func(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error) {
			got = req
			return &domain.Booking{
				ID:         5,
				UserID:     caller.UserID,
				RoomID:     req.RoomID,
				Stay:       req.Stay,
				Guests:     req.Guests,
				TotalPrice: decimal.NewFromInt(360),
				Status:     domain.BookingAwaitingPayment,
			}, nil
		},
	}
	h := newRouter(NewController(uc, zap.NewNop()))

	body := `{"roomId":3,"startDate":"2026-01-10","endDate":"2026-01-13","adults":1,"childrenTierB":1}`
	rec := serve(t, h, client, http.MethodPost, "/bookings", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(3), got.RoomID)
	assert.Equal(t, 3, got.Stay.Nights())
	assert.Equal(t, 1, got.Guests.ChildrenTierB)

	var resp dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "360.00", resp.TotalPrice)
	assert.Equal(t, "AWAITING_PAYMENT", resp.Status)
	assert.Equal(t, "2026-01-10", resp.StartDate)
}

func TestController_CreateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		useCaseErr error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"roomId":`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", `{"roomId":1,"foo":1}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad date", `{"roomId":1,"startDate":"10/01/2026","endDate":"2026-01-13","adults":1}`, nil, http.StatusBadRequest, apperrors.CodeDateRangeInvalid},
		{"missing room", `{"startDate":"2026-01-10","endDate":"2026-01-13","adults":1}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{
			"conflict",
			`{"roomId":1,"startDate":"2026-01-10","endDate":"2026-01-13","adults":1}`,
			apperrors.NewConflictError("room 1 is already booked"),
			http.StatusConflict, "CONFLICT",
		},
		{
			"capacity",
			`{"roomId":1,"startDate":"2026-01-10","endDate":"2026-01-13","adults":9}`,
			apperrors.NewCodedValidationError(apperrors.CodeCapacityExceeded, "too many guests"),
			http.StatusBadRequest, apperrors.CodeCapacityExceeded,
		},
		{
			"closed room",
			`{"roomId":1,"startDate":"2026-01-10","endDate":"2026-01-13","adults":1}`,
			apperrors.NewStateError(apperrors.GuardResourceUnavailable, "room closed"),
			http.StatusBadRequest, apperrors.GuardResourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{
				CreateFunc: func(ctx context.Context, caller domain.Caller, req domain.StayRequest) (*domain.Booking, error) {
					if tt.useCaseErr == nil {
						t.Fatal("use case must not be reached")
					}
					return nil, tt.useCaseErr
				},
			}
			h := newRouter(NewController(uc, zap.NewNop()))

			rec := serve(t, h, client, http.MethodPost, "/bookings", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.TraceID)
		})
	}
}

func TestController_Cancel(t *testing.T) {
	var gotID int64
	uc := &mockUseCase{
		CancelFunc: func(ctx context.Context, caller domain.Caller, bookingID int64) error {
			gotID = bookingID
			return nil
		},
	}
	h := newRouter(NewController(uc, zap.NewNop()))

	rec := serve(t, h, client, http.MethodDelete, "/bookings/42", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), gotID)

	rec = serve(t, h, client, http.MethodDelete, "/bookings/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestController_ListAllStatusFilter(t *testing.T) {
	var got *domain.BookingStatus
	uc := &mockUseCase{
		ListAllFunc: func(ctx context.Context, caller domain.Caller, status *domain.BookingStatus) ([]domain.Booking, error) {
			got = status
			return []domain.Booking{}, nil
		},
	}
	h := newRouter(NewController(uc, zap.NewNop()))

	rec := serve(t, h, admin, http.MethodGet, "/admin/bookings?status=CONFIRMED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, domain.BookingConfirmed, *got)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
