package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanCarriesActorAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID, userID := uuid.New(), uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing(), JWTAuthMiddleware(nil), TracingAttributeInjector())
	router.GET("/api/v1/billing/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/invoices/abc", nil)
	req.Header.Set("X-Request-ID", "req-tracing-1")
	req.Header.Set(TenantIDHeader, tenantID.String())
	req.Header.Set(UserIDHeader, userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, "GET /api/v1/billing/invoices/:id")
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-tracing-1", v.AsString())
	v, ok = spanAttr(span, "tenant_id")
	require.True(t, ok)
	assert.Equal(t, tenantID.String(), v.AsString())
	v, ok = spanAttr(span, "user_id")
	require.True(t, ok)
	assert.Equal(t, userID.String(), v.AsString())
	v, ok = spanAttr(span, "billing.resource_id")
	require.True(t, ok)
	assert.Equal(t, "abc", v.AsString())
	_, ok = spanAttr(span, "billing.owner_id")
	assert.False(t, ok)
}

func TestSpanErrorMarker_RecordsDomainCode(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(), SpanErrorMarker())
	router.POST("/pay", func(c *gin.Context) {
		c.Set(ErrorCodeKey, "AMOUNT_EXCEEDS_DUE")
		c.Status(http.StatusUnprocessableEntity)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay", nil))

	span := findSpan(t, sr, "POST /pay")
	v, ok := spanAttr(span, "billing.error_code")
	require.True(t, ok)
	assert.Equal(t, "AMOUNT_EXCEEDS_DUE", v.AsString())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{"ok", http.StatusOK, codes.Unset},
		{"conflict", http.StatusConflict, codes.Error},
		{"unprocessable", http.StatusUnprocessableEntity, codes.Error},
		{"bad gateway", http.StatusBadGateway, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(Tracing(), SpanErrorMarker())
			router.POST("/pay", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay", nil))

			span := findSpan(t, sr, "POST /pay")
			assert.Equal(t, tt.wantStatus, span.Status().Code)
			if tt.wantStatus == codes.Error && tt.status < http.StatusInternalServerError {
				assert.Equal(t, http.StatusText(tt.status), span.Status().Description)
			}
		})
	}
}

func TestTracingAttributeInjector_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(TracingAttributeInjector(), SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
