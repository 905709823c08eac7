package dto

import (
	"time"

	"github.com/hostel/backend/internal/domain/shared"
)

// Response is the envelope every JSON endpoint answers with. Exactly one of
// Data and Error is set.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta describes the page a list response holds
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps one page of a list. A non-positive
// pageSize is reported as the default page size.
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = shared.DefaultPageSize
	}
	meta := &Meta{Total: total, Page: page, PageSize: pageSize, TotalPages: shared.PageCount(total, pageSize)}
	return Response{Success: true, Data: data, Meta: meta}
}

func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID stamps the error with the current UTC time
// and the correlation ID of the failing request.
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	info := &ErrorInfo{Code: code, Message: message, RequestID: requestID, Timestamp: time.Now().UTC()}
	return Response{Error: info}
}

// NewValidationErrorResponse lists the rejected fields under VALIDATION_FAILED
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
