package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apperrors "staybook/internal/errors"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}

// ParseDate parses a YYYY-MM-DD value as midnight UTC. An empty value yields
// the zero time so that range validation can report it as missing.
func ParseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperrors.NewCodedValidationError(apperrors.CodeDateRangeInvalid, "invalid date", apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be formatted as YYYY-MM-DD",
		})
	}
	return t, nil
}

// ParseAmount parses a decimal amount. An empty value yields zero.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError("invalid amount", apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be a decimal number",
		})
	}
	return d, nil
}
