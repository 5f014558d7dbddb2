package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
)

// NotificationRecorder keeps published events in memory and logs them.
type NotificationRecorder struct {
	mu     sync.Mutex
	events []notification.Event
	logger *logging.Logger
}

func NewNotificationRecorder(logger *logging.Logger) *NotificationRecorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NotificationRecorder{logger: logger}
}

func (r *NotificationRecorder) Publish(ctx context.Context, events ...notification.Event) error {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()

	for _, event := range events {
		r.logger.DebugContext(ctx, "notification recorded", "user_id", event.UserID, "kind", event.Kind)
	}
	return nil
}

func (r *NotificationRecorder) Events() []notification.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *NotificationRecorder) EventsOfKind(kind notification.Kind) []notification.Event {
	out := make([]notification.Event, 0)
	for _, event := range r.Events() {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}
