package billing

import (
	"context"

	"github.com/thehub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// publishEvents hands committed domain events to the publisher. Publishing
// failures are logged and never undo the committed operation.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}
