package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Timestamps come from the
// caller's clock so that replays and tests stay deterministic.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntityAt assigns a fresh ID with both timestamps set to at
func NewBaseEntityAt(at time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// Touch stamps UpdatedAt
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// EventRecorder is implemented by aggregates that buffer events until commit
type EventRecorder interface {
	GetDomainEvents() []DomainEvent
	PullDomainEvents() []DomainEvent
}

// BaseAggregateRoot adds an optimistic-lock version and an event buffer.
// Version starts at 1 and is bumped by every state-changing method.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent buffers an event for publication after the aggregate is saved
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }

// PullDomainEvents returns the buffered events and empties the buffer
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}

// TenantAggregateRoot is an aggregate owned by one hostel
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID
}

// NewTenantAggregateRootAt starts a version-1 aggregate for tenantID created at at
func NewTenantAggregateRootAt(tenantID uuid.UUID, at time.Time) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntityAt(at), Version: 1},
		TenantID:          tenantID,
	}
}
