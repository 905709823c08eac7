package billing

import (
	"context"

	"github.com/hostel/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// publishEvents hands the pending events of each aggregate to the publisher after commit.
// Delivery failures are logged; the ledger change has already been committed.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, sources ...shared.EventRecorder) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		events := src.PullDomainEvents()
		if publisher == nil || len(events) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil {
			log.Warn("domain event publication failed",
				zap.Int("event_count", len(events)),
				zap.String("first_event_type", events[0].EventType()),
				zap.Error(err),
			)
		}
	}
}
