package payment

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
	OpenFunc    func(ctx context.Context, req OpenRequest) (*domain.Payment, error)
	CaptureFunc func(ctx context.Context, orderRef string) (*domain.Payment, error)
	FailFunc    func(ctx context.Context, orderRef, reason string) (*domain.Payment, error)
}

func (m *mockUseCase) Open(ctx context.Context, req OpenRequest) (*domain.Payment, error) {
	return m.OpenFunc(ctx, req)
}

func (m *mockUseCase) Capture(ctx context.Context, orderRef string) (*domain.Payment, error) {
	return m.CaptureFunc(ctx, orderRef)
}

func (m *mockUseCase) Fail(ctx context.Context, orderRef, reason string) (*domain.Payment, error) {
	return m.FailFunc(ctx, orderRef, reason)
}

func newRouter(c *Controller) http.Handler {
	r := chi.NewRouter()
	r.Post("/payments", c.Open)
	r.Post("/payments/{orderRef}/capture", c.Capture)
	r.Post("/payments/{orderRef}/fail", c.Fail)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithCaller(req.Context(), client))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestController_Open(t *testing.T) {
	var got OpenRequest
	uc := &mockUseCase{
		OpenFunc: func(ctx context.Context, req OpenRequest) (*domain.Payment, error) {
			got = req
			return &domain.Payment{
				ID:        1,
				BookingID: req.BookingID,
				OrderRef:  req.OrderRef,
				Amount:    req.Amount,
				Currency:  "TND",
				Status:    domain.PaymentPending,
			}, nil
		},
	}
	h := newRouter(NewController(uc, zap.NewNop()))

	rec := serve(h, http.MethodPost, "/payments", `{"bookingId":4,"orderRef":" ord-1 ","amount":"360.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, client, got.Caller)
	assert.Equal(t, "ord-1", got.OrderRef)
	assert.True(t, decimal.RequireFromString("360.50").Equal(got.Amount))

	var resp dto.PaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "360.50", resp.Amount)
	assert.Equal(t, "PENDING", resp.Status)
}

func TestController_OpenBadAmount(t *testing.T) {
	h := newRouter(NewController(&mockUseCase{}, zap.NewNop()))

	rec := serve(h, http.MethodPost, "/payments", `{"bookingId":4,"orderRef":"ord-1","amount":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestController_CaptureStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate", apperrors.NewDuplicateCaptureError("ord-1"), http.StatusConflict, "DUPLICATE_CAPTURE"},
		{"unknown", apperrors.NewNotFoundError("payment not found"), http.StatusNotFound, "NOT_FOUND"},
		{"deadlock", apperrors.NewDeadlockError("gave up"), http.StatusConflict, "DEADLOCK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUseCase{
				CaptureFunc: func(ctx context.Context, orderRef string) (*domain.Payment, error) {
					return nil, tt.err
				},
			}
			h := newRouter(NewController(uc, zap.NewNop()))

			rec := serve(h, http.MethodPost, "/payments/ord-1/capture", "")
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestController_Fail(t *testing.T) {
	var gotRef, gotReason string
	uc := &mockUseCase{
		FailFunc: func(ctx context.Context, orderRef, reason string) (*domain.Payment, error) {
			gotRef, gotReason = orderRef, reason
			return &domain.Payment{OrderRef: orderRef, Status: domain.PaymentFailed, ErrorDetail: reason}, nil
		},
	}
	h := newRouter(NewController(uc, zap.NewNop()))

	rec := serve(h, http.MethodPost, "/payments/ord-9/fail", `{"reason":"declined"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord-9", gotRef)
	assert.Equal(t, "declined", gotReason)
}
