package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

type notificationOutboxModel struct {
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"created_at"`
}

// NotificationOutbox stores events for an external delivery worker. Event
// IDs are unique so a replayed publish is a no-op.
type NotificationOutbox struct {
	db *sqlx.DB
}

func NewNotificationOutbox(db *sqlx.DB) *NotificationOutbox {
	return &NotificationOutbox{db: db}
}

// Publish stores events outside a settlement; re-publishing an event that a
// settlement already committed is a no-op.
func (o *NotificationOutbox) Publish(ctx context.Context, events ...notification.Event) error {
	return insertOutbox(ctx, o.db, events)
}

func insertOutbox(ctx context.Context, exec sqlx.ExecerContext, events []notification.Event) error {
	if len(events) == 0 {
		return nil
	}

	models := make([]any, 0, len(events))
	for _, event := range events {
		payload, err := marshalPayload(event.Payload)
		if err != nil {
			return fmt.Errorf("encode notification payload event=%s: %w", event.ID, err)
		}
		createdAt := event.CreatedAt.UTC()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		models = append(models, notificationOutboxModel{
			EventID:   event.ID,
			UserID:    event.UserID,
			Kind:      string(event.Kind),
			Payload:   payload,
			CreatedAt: createdAt,
		})
	}

	query, args, err := qb.InsertModels("notification_outbox", models, "ON CONFLICT (event_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert notification outbox query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrap(err, "insert notification outbox")
	}
	return nil
}
