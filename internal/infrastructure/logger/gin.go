package logger

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the correlation ID of a request
const RequestIDHeader = "X-Request-ID"

// Gin context keys written by the HTTP middleware and handlers
const (
	ginRequestIDKey = "request_id"
	ginErrorCodeKey = "error_code"
)

// GinMiddleware puts a request-scoped logger into the request context for
// L(ctx) and writes one access line per request. Successful requests to
// quietPaths (health checks) are not logged.
func GinMiddleware(base *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx := WithContext(c.Request.Context(), base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		))
		if id := c.GetString(ginRequestIDKey); id != "" {
			ctx = WithRequestID(ctx, id)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		level := accessLevel(status)
		if level == zapcore.InfoLevel && slices.Contains(quietPaths, c.Request.URL.Path) {
			return
		}
		ce := L(c.Request.Context()).Check(level, "HTTP Request")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("route", c.FullPath()),
			zap.Duration("latency", time.Since(started)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if code := c.GetString(ginErrorCodeKey); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recovery answers a panicking request with 500 and the INTERNAL envelope.
// The panic value and stack go to the error log.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			Enrich(c.Request.Context(), base).Error("Panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.Set(ginErrorCodeKey, "INTERNAL")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": "INTERNAL", "message": "Internal server error"},
			})
		}()
		c.Next()
	}
}
