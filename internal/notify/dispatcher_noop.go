package notify

import (
	"context"
	"log/slog"
)

// NoopDispatcher logs events instead of sending them. Used in demo mode
// and when Kafka is not configured.
type NoopDispatcher struct {
	logger *slog.Logger
}

func NewNoopDispatcher(logger *slog.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: logger}
}

func (d *NoopDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.logger.InfoContext(ctx, "notification suppressed (no dispatcher configured)",
		"type", event.Type,
		"recipient_id", event.RecipientID,
	)
	return nil
}
