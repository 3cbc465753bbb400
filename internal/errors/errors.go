package errors

import (
	"errors"
	"fmt"
)

// Validation codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeDateRangeInvalid = "DATE_RANGE_INVALID"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeAmountMismatch   = "AMOUNT_MISMATCH"
)

// State guards.
const (
	GuardCutoffPassed         = "CUTOFF_PASSED"
	GuardStatusNotModifiable  = "STATUS_NOT_MODIFIABLE"
	GuardStatusNotCancellable = "STATUS_NOT_CANCELLABLE"
	GuardAlreadyPaid          = "ALREADY_PAID"
	GuardBookingCancelled     = "BOOKING_CANCELLED"
	GuardResourceUnavailable  = "RESOURCE_UNAVAILABLE"
	GuardInvalidTransition    = "INVALID_TRANSITION"
	GuardPaymentNotPending    = "PAYMENT_NOT_PENDING"
	GuardPaymentSettled       = "PAYMENT_SETTLED"
	GuardFeedbackNotAllowed   = "FEEDBACK_NOT_ALLOWED"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Code    string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Code:    CodeInvalidRequest,
		Details: details,
	}
}

// NewCodedValidationError builds a validation error tagged with one of the
// Code* constants.
func NewCodedValidationError(code, message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Code:    code,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// StateError reports a rejected lifecycle transition. Guard names the check
// that failed.
type StateError struct {
	Message string
	Guard   string
}

func (e *StateError) Error() string {
	return e.Message
}

func NewStateError(guard, message string) *StateError {
	return &StateError{
		Message: message,
		Guard:   guard,
	}
}

func IsStateError(err error) (*StateError, bool) {
	var se *StateError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// DuplicateCaptureError is returned when a payment that is already PAID is
// captured again. Callers treat it as already handled.
type DuplicateCaptureError struct {
	OrderRef string
}

func (e *DuplicateCaptureError) Error() string {
	return fmt.Sprintf("payment %s already captured", e.OrderRef)
}

func NewDuplicateCaptureError(orderRef string) *DuplicateCaptureError {
	return &DuplicateCaptureError{OrderRef: orderRef}
}

func IsDuplicateCaptureError(err error) (*DuplicateCaptureError, bool) {
	var de *DuplicateCaptureError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
