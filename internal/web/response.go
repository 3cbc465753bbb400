package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"staybook/internal/dto"
	apperrors "staybook/internal/errors"
)

// Responder writes JSON responses and maps service errors to HTTP statuses.
type Responder struct {
	logger *zap.Logger
}

func NewResponder(logger *zap.Logger) *Responder {
	return &Responder{logger: logger}
}

// Trace starts a request trace and returns its id with a logger carrying it.
func (rs *Responder) Trace(r *http.Request) (string, *zap.Logger) {
	traceID := uuid.New().String()
	return traceID, rs.logger.With(
		zap.String("traceId", traceID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (rs *Responder) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("failed to encode response", zap.Error(err))
	}
}

// Error maps err onto the error taxonomy. Unknown errors are logged and
// reported as 500 without leaking their text.
func (rs *Responder) Error(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		code := "VALIDATION_ERROR"
		if ve.Code != apperrors.CodeInvalidRequest {
			code = ve.Code
		}
		rs.write(w, traceID, http.StatusBadRequest, code, ve.Message, ve.Details)
		return
	}

	if se, ok := apperrors.IsStateError(err); ok {
		rs.write(w, traceID, http.StatusBadRequest, se.Guard, se.Message, nil)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		rs.write(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		rs.write(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		rs.write(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsDuplicateCaptureError(err); ok {
		rs.write(w, traceID, http.StatusConflict, "DUPLICATE_CAPTURE", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		rs.write(w, traceID, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		logger.Warn("request gave up after lock contention", zap.Error(err))
		rs.write(w, traceID, http.StatusConflict, "DEADLOCK", err.Error(), nil)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	rs.write(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func (rs *Responder) ValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	rs.write(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func (rs *Responder) write(w http.ResponseWriter, traceID string, status int, code, message string, details []apperrors.ValidationDetail) {
	rs.JSON(w, status, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}
