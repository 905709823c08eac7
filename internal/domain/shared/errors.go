package shared

import "errors"

// Error codes surfaced to callers of the billing core
const (
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeAmountExceedsDue        = "AMOUNT_EXCEEDS_DUE"
	CodeAmountExceedsRefundable = "AMOUNT_EXCEEDS_REFUNDABLE"
	CodeIllegalStateTransition  = "ILLEGAL_STATE_TRANSITION"
	CodeConflict                = "CONFLICT"
	CodeDependencyFailed        = "DEPENDENCY_FAILED"
	CodeInternal                = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the underlying cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound                = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput            = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrAmountExceedsDue        = NewDomainError(CodeAmountExceedsDue, "Payment amount exceeds the remaining due amount")
	ErrAmountExceedsRefundable = NewDomainError(CodeAmountExceedsRefundable, "Refund amount exceeds the refundable balance")
	ErrIllegalStateTransition  = NewDomainError(CodeIllegalStateTransition, "Operation not allowed in current state")
	ErrConflict                = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrDependencyFailed        = NewDomainError(CodeDependencyFailed, "External dependency failed")
	ErrInternal                = NewDomainError(CodeInternal, "Internal error")
)

// ErrorCode extracts the domain error code from err. A nil error has no code;
// errors that are not domain errors map to INTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
