package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

// AttrErrorCode labels error responses with the domain error code
var AttrErrorCode = attribute.Key("error_code")

var responseSizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576}

type httpInstruments struct {
	requests     *telemetry.Counter
	errors       *telemetry.Counter
	duration     *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in  httpInstruments
		err error
	)
	if in.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "HTTP requests by route and status", "{request}"); err != nil {
		return nil, err
	}
	if in.errors, err = telemetry.NewCounter(meter,
		"http_server_error_responses_total", "4xx and 5xx responses by route and domain error code", "{response}"); err != nil {
		return nil, err
	}
	if in.duration, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if in.responseSize, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size in bytes",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return &in, nil
}

// HTTPMetrics records request counts, latency, response size, in-flight
// requests and error responses keyed by domain error code. It is a no-op
// when the meter provider is missing or disabled.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter is HTTPMetrics over an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		in.inFlight.Add(ctx, 1)
		c.Next()
		in.inFlight.Add(ctx, -1)

		route := routePattern(c)
		status := c.Writer.Status()
		routeAttrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}

		counted := append([]attribute.KeyValue{telemetry.AttrHTTPStatusCode.Int(status)}, routeAttrs...)
		if tenantID := GetJWTTenantID(c); tenantID != "" {
			counted = append(counted, telemetry.AttrTenantID.String(tenantID))
		}
		in.requests.Inc(ctx, counted...)
		in.duration.RecordDuration(ctx, time.Since(start), routeAttrs...)
		if size := c.Writer.Size(); size > 0 {
			in.responseSize.Record(ctx, float64(size), routeAttrs...)
		}
		if status >= 400 {
			code := c.GetString(ErrorCodeKey)
			if code == "" {
				code = "UNSPECIFIED"
			}
			in.errors.Inc(ctx, telemetry.AttrHTTPRoute.String(route), AttrErrorCode.String(code))
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// routePattern returns the matched route, never the raw path, to bound label cardinality
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
