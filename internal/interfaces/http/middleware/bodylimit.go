package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/interfaces/http/dto"
)

// BodyLimit caps request bodies at maxBytes; zero or less means unlimited.
// Requests that declare a larger Content-Length are refused before the
// handler runs. Streamed bodies fail on read once the cap is crossed.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			rejectOversized(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func rejectOversized(c *gin.Context) {
	c.Set(ErrorCodeKey, dto.ErrCodePayloadTooLarge)
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodePayloadTooLarge,
		"Request body exceeds maximum allowed size",
		c.GetString(RequestIDKey),
	))
}
