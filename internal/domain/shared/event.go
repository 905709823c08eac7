package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and published once the
// aggregate has been persisted. Events are journaled per aggregate and
// replayed in OccurredAt order.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventEnvelope holds the addressing fields every billing event carries.
// Concrete events embed it and add their payload fields alongside.
type EventEnvelope struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggID         uuid.UUID `json:"aggregate_id"`
	AggType       string    `json:"aggregate_type"`
	TenantIDValue uuid.UUID `json:"tenant_id"`
}

// NewEventEnvelope stamps a fresh envelope. at is the aggregate's business
// clock reading; a zero value falls back to the wall clock.
func NewEventEnvelope(eventType, aggType string, aggID, tenantID uuid.UUID, at time.Time) EventEnvelope {
	if at.IsZero() {
		at = time.Now()
	}
	return EventEnvelope{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     at.UTC(),
		AggID:         aggID,
		AggType:       aggType,
		TenantIDValue: tenantID,
	}
}

func (e *EventEnvelope) EventID() uuid.UUID     { return e.ID }
func (e *EventEnvelope) EventType() string      { return e.Type }
func (e *EventEnvelope) OccurredAt() time.Time  { return e.Timestamp }
func (e *EventEnvelope) AggregateID() uuid.UUID { return e.AggID }
func (e *EventEnvelope) AggregateType() string  { return e.AggType }
func (e *EventEnvelope) TenantID() uuid.UUID    { return e.TenantIDValue }
