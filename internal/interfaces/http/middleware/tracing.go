package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey is the gin context key under which handlers record the
// domain error code they answered with
const ErrorCodeKey = "error_code"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request for the hostel-billing service
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(TracingConfig{ServiceName: "hostel-billing", Enabled: true})
}

// TracingWithConfig wraps otelgin; spans are named "METHOD route"
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanErrorMarker runs inside Tracing. After the handler returns it marks the
// span failed for any 4xx or 5xx status and attaches the domain error code.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		status := c.Writer.Status()
		if !span.IsRecording() || status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("billing.error_code", code))
		}
	}
}

// TracingAttributeInjector tags the span with correlation and actor
// attributes plus the billing resource addressed by the route. Place it
// after the actor middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(requestAttributes(c)...)
		}
		c.Next()
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	pairs := []struct {
		key   string
		value string
	}{
		{"request_id", c.GetString(RequestIDKey)},
		{"tenant_id", GetJWTTenantID(c)},
		{"user_id", GetJWTUserID(c)},
		{"billing.resource_id", c.Param("id")},
		{"billing.owner_id", c.Param("owner_id")},
	}
	attrs := make([]attribute.KeyValue, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			attrs = append(attrs, attribute.String(p.key, p.value))
		}
	}
	return attrs
}
