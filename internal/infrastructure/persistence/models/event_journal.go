package models

import (
	"time"

	"github.com/google/uuid"
)

// EventJournalModel is one published billing domain event, kept for audit.
// Rows are append-only; the payload is the JSON form of the event.
type EventJournalModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_event_journal_aggregate,priority:1"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string    `gorm:"type:varchar(100);not null;index"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index:idx_event_journal_aggregate,priority:2"`
	AggregateType string    `gorm:"type:varchar(100);not null"`
	Payload       []byte    `gorm:"type:jsonb;not null"`
	OccurredAt    time.Time `gorm:"not null;index:idx_event_journal_aggregate,priority:3"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EventJournalModel) TableName() string {
	return "billing_event_journal"
}
