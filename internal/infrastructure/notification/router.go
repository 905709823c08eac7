// Package notification delivers reminder and receipt messages over e-mail and SMS.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/hostel/backend/internal/domain/billing"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrChannelNotConfigured is returned when no sink handles a channel
var ErrChannelNotConfigured = errors.New("notification: channel not configured")

// Router dispatches each notification to the sink registered for its channel
type Router struct {
	sinks map[billing.Channel]billing.NotificationSink
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{sinks: make(map[billing.Channel]billing.NotificationSink)}
}

// Register sets the sink for a single channel. BOTH is not a delivery channel.
func (r *Router) Register(channel billing.Channel, sink billing.NotificationSink) *Router {
	r.sinks[channel] = sink
	return r
}

// Send implements billing.NotificationSink
func (r *Router) Send(ctx context.Context, n billing.Notification) (string, error) {
	sink, ok := r.sinks[n.Channel]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrChannelNotConfigured, n.Channel)
	}
	return sink.Send(ctx, n)
}

// RateLimitedSink throttles outbound messages with a token bucket
type RateLimitedSink struct {
	next    billing.NotificationSink
	limiter *rate.Limiter
}

// NewRateLimitedSink wraps next. A non-positive qps disables limiting.
func NewRateLimitedSink(next billing.NotificationSink, qps float64, burst int) billing.NotificationSink {
	if qps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
}

// Send waits for a token, then delivers. A cancelled context fails the send.
func (s *RateLimitedSink) Send(ctx context.Context, n billing.Notification) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("notification: rate limit wait: %w", err)
	}
	return s.next.Send(ctx, n)
}

// LogSink writes notifications to the log instead of delivering them.
// It is used in development and when no provider is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log-only sink
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the message and reports it as delivered
func (s *LogSink) Send(_ context.Context, n billing.Notification) (string, error) {
	s.logger.Info("notification (log only)",
		zap.String("channel", n.Channel.String()),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject),
		zap.Int("body_length", len(n.Body)),
	)
	return "log", nil
}

var (
	_ billing.NotificationSink = (*Router)(nil)
	_ billing.NotificationSink = (*RateLimitedSink)(nil)
	_ billing.NotificationSink = (*LogSink)(nil)
)
