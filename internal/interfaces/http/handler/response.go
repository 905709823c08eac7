package handler

import "github.com/hostel/backend/internal/interfaces/http/dto"

// The types below only shape the OpenAPI document. Handlers write dto.Response.

// APIResponse wraps a single payload
// @Description Success envelope with a typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// PagedResponse wraps one page of a list endpoint
// @Description Success envelope carrying a page of items and pagination meta
type PagedResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    []T       `json:"data"`
	Meta    *dto.Meta `json:"meta"`
}

// ErrorResponse is the failure envelope; error.code carries the domain error code
// @Description Error envelope
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
