package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReminderCancellationHandler handles InvoicePaidEvent and InvoiceCancelledEvent
// and withdraws reminders that are still waiting to go out
type ReminderCancellationHandler struct {
	reminders billing.ReminderRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewReminderCancellationHandler creates a new ReminderCancellationHandler
func NewReminderCancellationHandler(reminders billing.ReminderRepository, logger *zap.Logger) *ReminderCancellationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderCancellationHandler{
		reminders: reminders,
		logger:    logger,
		now:       time.Now,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReminderCancellationHandler) EventTypes() []string {
	return []string{billing.EventTypeInvoicePaid, billing.EventTypeInvoiceCancelled}
}

// Handle cancels every PENDING reminder of the settled invoice
func (h *ReminderCancellationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var invoiceNumber string
	switch e := event.(type) {
	case *billing.InvoicePaidEvent:
		invoiceNumber = e.InvoiceNumber
	case *billing.InvoiceCancelledEvent:
		invoiceNumber = e.InvoiceNumber
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	n, err := h.reminders.CancelPendingByInvoice(ctx, event.TenantID(), event.AggregateID(), h.now())
	if err != nil {
		h.logger.Error("failed to cancel pending reminders",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err),
		)
		return err
	}
	if n > 0 {
		h.logger.Info("pending reminders cancelled",
			zap.String("invoice_number", invoiceNumber),
			zap.String("event_type", event.EventType()),
			zap.Int64("count", n),
		)
	}
	return nil
}

var _ shared.EventHandler = (*ReminderCancellationHandler)(nil)
