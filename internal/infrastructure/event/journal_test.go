package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupJournal(t *testing.T) (*EventJournal, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.EventJournalModel{}))

	serializer := NewEventSerializer()
	RegisterBillingEvents(serializer)
	return NewEventJournal(db, serializer, zap.NewNop()), db
}

func TestEventJournal_RecordsPublishedEvents(t *testing.T) {
	journal, _ := setupJournal(t)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(journal)

	tenantID, invoiceID := uuid.New(), uuid.New()
	applied := newPaymentAppliedEvent(tenantID, invoiceID)
	applied.Timestamp = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	paid := &billing.InvoicePaidEvent{
		EventEnvelope: shared.NewEventEnvelope(billing.EventTypeInvoicePaid, billing.AggregateTypeInvoice, invoiceID, tenantID, time.Now()),
		InvoiceNumber: applied.InvoiceNumber,
	}
	paid.Timestamp = applied.Timestamp.Add(time.Second)
	other := newPaymentAppliedEvent(tenantID, uuid.New())

	require.NoError(t, bus.Publish(context.Background(), applied, paid, other))

	history, err := journal.History(context.Background(), tenantID, invoiceID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, billing.EventTypeInvoicePaymentApplied, history[0].EventType)
	decoded, ok := history[0].Event.(*billing.InvoicePaymentAppliedEvent)
	require.True(t, ok)
	assert.True(t, decoded.Amount.Equal(applied.Amount))

	assert.Equal(t, billing.EventTypeInvoicePaid, history[1].EventType)
	assert.Equal(t, paid.EventID(), history[1].EventID)
	assert.IsType(t, &billing.InvoicePaidEvent{}, history[1].Event)
}

func TestEventJournal_RedeliveryIsIgnored(t *testing.T) {
	journal, db := setupJournal(t)
	event := newPaymentAppliedEvent(uuid.New(), uuid.New())

	require.NoError(t, journal.Handle(context.Background(), event))
	require.NoError(t, journal.Handle(context.Background(), event))

	var count int64
	require.NoError(t, db.Model(&models.EventJournalModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEventJournal_IsolatesTenants(t *testing.T) {
	journal, _ := setupJournal(t)
	invoiceID := uuid.New()
	require.NoError(t, journal.Handle(context.Background(), newPaymentAppliedEvent(uuid.New(), invoiceID)))

	history, err := journal.History(context.Background(), uuid.New(), invoiceID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEventJournal_UnknownTypeKeepsPayload(t *testing.T) {
	journal, db := setupJournal(t)
	tenantID, aggregateID := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&models.EventJournalModel{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EventID:       uuid.New(),
		EventType:     "LegacyInvoiceAdjusted",
		AggregateID:   aggregateID,
		AggregateType: billing.AggregateTypeInvoice,
		Payload:       []byte(`{"type":"LegacyInvoiceAdjusted"}`),
		OccurredAt:    time.Now(),
		CreatedAt:     time.Now(),
	}).Error)

	history, err := journal.History(context.Background(), tenantID, aggregateID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].Event)
	assert.JSONEq(t, `{"type":"LegacyInvoiceAdjusted"}`, string(history[0].Payload))
}
