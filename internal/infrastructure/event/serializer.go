package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
)

// ErrUnknownEventType is returned when deserializing a type that was never registered
var ErrUnknownEventType = errors.New("unknown event type")

// eventPtr constrains PT to a pointer to T that implements DomainEvent
type eventPtr[T any] interface {
	*T
	shared.DomainEvent
}

// EventSerializer converts journaled events between JSON and their concrete
// Go types. Each event type name is bound to a factory for its payload.
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]func() shared.DomainEvent
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]func() shared.DomainEvent)}
}

// Register binds eventType to the event struct T. Several names may share T.
func Register[T any, PT eventPtr[T]](s *EventSerializer, eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[eventType] = func() shared.DomainEvent { return PT(new(T)) }
}

// RegisterBillingEvents makes every billing event decodable from the journal
func RegisterBillingEvents(s *EventSerializer) {
	Register[billing.InvoiceCreatedEvent](s, billing.EventTypeInvoiceCreated)
	Register[billing.InvoicePaymentAppliedEvent](s, billing.EventTypeInvoicePaymentApplied)
	Register[billing.InvoicePaidEvent](s, billing.EventTypeInvoicePaid)
	Register[billing.InvoiceCancelledEvent](s, billing.EventTypeInvoiceCancelled)

	Register[billing.RefundRequestedEvent](s, billing.EventTypeRefundRequested)
	Register[billing.RefundCompletedEvent](s, billing.EventTypeRefundCompleted)
	Register[billing.RefundRejectedEvent](s, billing.EventTypeRefundRejected)

	Register[billing.ReminderDispatchedEvent](s, billing.EventTypeReminderSent)
	Register[billing.ReminderDispatchedEvent](s, billing.EventTypeReminderFailed)
}

func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data as eventType. The payload's own type field must
// agree with eventType.
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	if event.EventType() != eventType {
		return nil, fmt.Errorf("payload carries event type %q, expected %q", event.EventType(), eventType)
	}
	return event, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes returns the registered event type names, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.factories))
}
