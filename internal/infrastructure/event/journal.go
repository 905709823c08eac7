package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JournalEntry is a recorded event together with its decoded form
type JournalEntry struct {
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	OccurredAt    time.Time
	Payload       []byte
	Event         shared.DomainEvent
}

// EventJournal is a wildcard handler that appends every published billing event
// to the billing_event_journal table. Re-delivery of the same event id is ignored.
type EventJournal struct {
	db         *gorm.DB
	serializer *EventSerializer
	logger     *zap.Logger
	now        func() time.Time
}

// NewEventJournal creates a new event journal
func NewEventJournal(db *gorm.DB, serializer *EventSerializer, logger *zap.Logger) *EventJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventJournal{
		db:         db,
		serializer: serializer,
		logger:     logger,
		now:        time.Now,
	}
}

// EventTypes returns nil: the journal records all events
func (j *EventJournal) EventTypes() []string {
	return nil
}

// Handle appends the event to the journal
func (j *EventJournal) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := j.serializer.Serialize(event)
	if err != nil {
		return err
	}

	row := &models.EventJournalModel{
		ID:            uuid.New(),
		TenantID:      event.TenantID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		OccurredAt:    event.OccurredAt(),
		CreatedAt:     j.now(),
	}
	result := j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return fmt.Errorf("failed to journal %s event: %w", event.EventType(), result.Error)
	}
	if result.RowsAffected == 0 {
		j.logger.Debug("Event already journaled", zap.String("event_id", event.EventID().String()))
	}
	return nil
}

// History returns the events recorded for an aggregate, oldest first.
// Entries whose type is no longer registered keep their raw payload and a nil Event.
func (j *EventJournal) History(ctx context.Context, tenantID, aggregateID uuid.UUID) ([]JournalEntry, error) {
	var rows []models.EventJournalModel
	err := j.db.WithContext(ctx).
		Where("tenant_id = ? AND aggregate_id = ?", tenantID, aggregateID).
		Order("occurred_at ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load event history: %w", err)
	}

	entries := make([]JournalEntry, 0, len(rows))
	for _, row := range rows {
		entry := JournalEntry{
			EventID:       row.EventID,
			EventType:     row.EventType,
			AggregateID:   row.AggregateID,
			AggregateType: row.AggregateType,
			OccurredAt:    row.OccurredAt,
			Payload:       row.Payload,
		}
		if decoded, err := j.serializer.Deserialize(row.EventType, row.Payload); err == nil {
			entry.Event = decoded
		} else {
			j.logger.Warn("Cannot decode journaled event",
				zap.String("event_id", row.EventID.String()),
				zap.String("event_type", row.EventType),
				zap.Error(err),
			)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var _ shared.EventHandler = (*EventJournal)(nil)
