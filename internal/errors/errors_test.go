package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "booking not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("room not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "room not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestNotFoundError_IsNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading booking: %w", NewNotFoundError("booking 7 not found"))

	notFoundErr, ok := IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "booking 7 not found", notFoundErr.Message)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "startDate", Message: "startDate is required"},
		{Field: "adults", Message: "adults must be at least 1"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Equal(t, CodeInvalidRequest, err.Code)
	assert.Len(t, err.Details, 2)
}

func TestValidationError_Coded(t *testing.T) {
	err := NewCodedValidationError(CodeCapacityExceeded, "too many guests")

	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, CodeCapacityExceeded, ve.Code)
	assert.Empty(t, ve.Details)
}

func TestStateError_CarriesGuard(t *testing.T) {
	err := NewStateError(GuardCutoffPassed, "cutoff passed")

	se, ok := IsStateError(err)
	require.True(t, ok)
	assert.Equal(t, GuardCutoffPassed, se.Guard)
	assert.Equal(t, "cutoff passed", se.Error())

	_, ok = IsValidationError(err)
	assert.False(t, ok)
}

func TestDuplicateCaptureError(t *testing.T) {
	err := NewDuplicateCaptureError("ORDER-1")

	de, ok := IsDuplicateCaptureError(err)
	require.True(t, ok)
	assert.Equal(t, "ORDER-1", de.OrderRef)
	assert.Contains(t, err.Error(), "ORDER-1")
}

func TestConflictForbiddenDeadlock_Predicates(t *testing.T) {
	_, ok := IsConflictError(NewConflictError("overlap"))
	assert.True(t, ok)

	_, ok = IsForbiddenError(NewForbiddenError("not yours"))
	assert.True(t, ok)

	_, ok = IsUnauthorizedError(NewUnauthorizedError("missing token"))
	assert.True(t, ok)

	_, ok = IsDeadlockError(NewDeadlockError("max retries exceeded"))
	assert.True(t, ok)

	_, ok = IsConflictError(NewForbiddenError("not yours"))
	assert.False(t, ok)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}
