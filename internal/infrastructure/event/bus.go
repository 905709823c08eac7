package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hostel/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// HandlerError reports one failed delivery of an event to a subscriber
type HandlerError struct {
	EventType string
	EventID   string
	Err       error
}

func (e *HandlerError) Error() string { return e.EventType + ": " + e.Err.Error() }
func (e *HandlerError) Unwrap() error { return e.Err }

// BusStats counts deliveries since the bus was created
type BusStats struct {
	Published int64
	Delivered int64
	Failed    int64
}

// InMemoryEventBus delivers billing events to subscribers synchronously on the
// publishing goroutine. A failing subscriber never stops delivery to the rest.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	log      *zap.Logger
	running  atomic.Bool

	published atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryEventBus{registry: NewHandlerRegistry(), log: log}
}

// Publish delivers each event to its subscribers in publication order. The
// returned error joins one *HandlerError per failed delivery.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var failures []error
	for _, evt := range events {
		b.published.Add(1)
		failures = append(failures, b.deliver(ctx, evt)...)
	}
	return errors.Join(failures...)
}

func (b *InMemoryEventBus) deliver(ctx context.Context, evt shared.DomainEvent) []error {
	var failures []error
	for _, h := range b.registry.GetHandlers(evt.EventType()) {
		err := invoke(ctx, h, evt)
		if err == nil {
			b.delivered.Add(1)
			continue
		}
		b.failed.Add(1)
		b.log.Error("Event handler failed",
			zap.String("event_type", evt.EventType()),
			zap.Stringer("event_id", evt.EventID()),
			zap.Stringer("tenant_id", evt.TenantID()),
			zap.Stringer("aggregate_id", evt.AggregateID()),
			zap.Error(err),
		)
		failures = append(failures, &HandlerError{
			EventType: evt.EventType(),
			EventID:   evt.EventID().String(),
			Err:       err,
		})
	}
	return failures
}

// invoke runs one handler, converting a panic into an error
func invoke(ctx context.Context, h shared.EventHandler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, evt)
}

// Subscribe registers a handler for the given types, or for the handler's own
// EventTypes when none are passed. No types at all makes it a wildcard.
func (b *InMemoryEventBus) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	b.registry.Register(h, eventTypes...)
	b.log.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(h shared.EventHandler) {
	b.registry.Unregister(h)
}

func (b *InMemoryEventBus) Start(context.Context) error {
	if b.running.Swap(true) {
		return nil
	}
	b.log.Info("Event bus started", zap.Int("subscriptions", b.registry.Count()))
	return nil
}

// Stop has nothing to drain since delivery is synchronous
func (b *InMemoryEventBus) Stop(context.Context) error {
	if !b.running.Swap(false) {
		return nil
	}
	s := b.Stats()
	b.log.Info("Event bus stopped",
		zap.Int64("published", s.Published),
		zap.Int64("delivered", s.Delivered),
		zap.Int64("failed", s.Failed),
	)
	return nil
}

func (b *InMemoryEventBus) Stats() BusStats {
	return BusStats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Failed:    b.failed.Load(),
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
