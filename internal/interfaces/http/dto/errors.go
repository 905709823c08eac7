package dto

import (
	"net/http"

	"github.com/hostel/backend/internal/domain/shared"
)

// Domain error codes, surfaced unchanged in the error envelope
const (
	ErrCodeNotFound                = shared.CodeNotFound
	ErrCodeInvalidInput            = shared.CodeInvalidInput
	ErrCodeAmountExceedsDue        = shared.CodeAmountExceedsDue
	ErrCodeAmountExceedsRefundable = shared.CodeAmountExceedsRefundable
	ErrCodeIllegalStateTransition  = shared.CodeIllegalStateTransition
	ErrCodeConflict                = shared.CodeConflict
	ErrCodeDependencyFailed        = shared.CodeDependencyFailed
	ErrCodeInternal                = shared.CodeInternal
)

// Transport error codes produced by the HTTP layer itself
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_FAILED"
	// ErrCodeBadRequest is used for malformed requests (bad path ids, unreadable JSON)
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeForbidden is used when the actor lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeRateLimited is used when the client exceeded its request rate
	ErrCodeRateLimited = "RATE_LIMITED"
	// ErrCodePayloadTooLarge is used when the request body exceeds the limit
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:                http.StatusNotFound,
	ErrCodeInvalidInput:            http.StatusBadRequest,
	ErrCodeAmountExceedsDue:        http.StatusUnprocessableEntity,
	ErrCodeAmountExceedsRefundable: http.StatusUnprocessableEntity,
	ErrCodeIllegalStateTransition:  http.StatusConflict,
	ErrCodeConflict:                http.StatusConflict,
	ErrCodeDependencyFailed:        http.StatusBadGateway,
	ErrCodeInternal:                http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
