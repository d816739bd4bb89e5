package apperr

import (
	"errors"
	"fmt"
)

// Stable error codes exposed to API clients and written to results.
const (
	CodeValidation        = "validation_error"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInsufficientFunds = "insufficient_funds"
	CodeExceedsCapacity   = "exceeds_remaining_capacity"
	CodeFullyFunded       = "loan_fully_funded"
	CodeInvalidTransition = "invalid_transition"
	CodePendingExists     = "pending_loan_exists"
	CodeKYCNotVerified    = "kyc_not_verified"
	CodeDuplicate         = "duplicate_operation"
	CodeVersionConflict   = "version_conflict"
	CodeTimeout           = "operation_timeout"
	CodeLockContention    = "lock_contention"
	CodeStorageFailure    = "storage_failure"
	CodeInternal          = "internal_error"
)

// Error is a sentinel carrying a code. Compare with errors.Is against the
// package-level values; classify with Code.
type Error struct {
	code string
	msg  string
}

func New(code, msg string) *Error { return &Error{code: code, msg: msg} }

func (e *Error) Error() string { return e.msg }
func (e *Error) Code() string  { return e.code }

// Cross-cutting failure kinds. Domain packages declare their own business errors;
// these cover caller mistakes and infrastructure trouble.
var (
	ErrValidation       = New(CodeValidation, "validation error")
	ErrForbidden        = New(CodeForbidden, "forbidden")
	ErrVersionConflict  = New(CodeVersionConflict, "version conflict")
	ErrOperationTimeout = New(CodeTimeout, "operation timeout")
	ErrLockContention   = New(CodeLockContention, "lock contention")
	ErrStorageFailure   = New(CodeStorageFailure, "storage failure")
)

// Validation wraps ErrValidation with a human readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Code returns the code of the first coded error in err's chain.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// Transient reports whether err may succeed when retried with the same input.
func Transient(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrOperationTimeout) ||
		errors.Is(err, ErrLockContention) ||
		errors.Is(err, ErrStorageFailure)
}
