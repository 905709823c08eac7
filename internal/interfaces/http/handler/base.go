package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/hostel/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler carries the response and binding helpers shared by the
// billing handlers.
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// getActorID returns the acting user, or nil when the caller is anonymous
// within its tenant
func getActorID(c *gin.Context) *uuid.UUID {
	raw := middleware.GetJWTUserID(c)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// tenantOrAbort returns the tenant resolved by the actor middleware, writing
// a 401 when it is missing or malformed.
func (h *BaseHandler) tenantOrAbort(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(middleware.GetJWTTenantID(c))
	if err != nil {
		h.Unauthorized(c, "Tenant is required")
		return uuid.Nil, false
	}
	return tenantID, true
}

// uuidParam parses a path parameter or writes a 400
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds and validates the body, writing a 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, writing a 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) Success(c *gin.Context, data any) { c.JSON(http.StatusOK, dto.NewSuccessResponse(data)) }
func (h *BaseHandler) Created(c *gin.Context, data any) { c.JSON(http.StatusCreated, dto.NewSuccessResponse(data)) }

// SuccessWithMeta answers with one page of a list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error writes the error envelope and records code for the metrics and
// tracing middleware.
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, msg string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, msg)
}

func (h *BaseHandler) NotFound(c *gin.Context, msg string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, msg)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, msg string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, msg)
}

func (h *BaseHandler) InternalError(c *gin.Context, msg string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, msg)
}

// HandleError maps domain errors onto their status codes. Anything else is
// logged and reported as INTERNAL without leaking its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	h.InternalError(c, "An unexpected error occurred")
}
