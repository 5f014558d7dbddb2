package notify

import (
	"context"

	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
)

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger.Named("notification")}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...notification.Event) error {
	for _, event := range events {
		p.logger.InfoContext(ctx, "notification published",
			"event_id", event.ID,
			"user_id", event.UserID,
			"kind", string(event.Kind),
		)
	}
	return nil
}
