package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}
	competitionID := strings.TrimSpace(event.CompetitionID)
	if competitionID == "" {
		competitionID = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID:    dispatchID,
		JobName:       jobName,
		JobPath:       jobPath,
		CompetitionID: competitionID,
		Payload:       payloadJSON,
		Status:        string(event.Status),
		LastError:     optionalString(event.ErrorMessage),
		TraceID:       optionalString(event.TraceID),
		SpanID:        optionalString(event.SpanID),
		UpdatedAt:     occurredAt,
	}

	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt = &occurredAt
		model.LastError = nil
	case jobscheduler.StatusCompleted, jobscheduler.StatusSkipped:
		model.CompletedAt = &occurredAt
		if event.Status == jobscheduler.StatusCompleted {
			model.LastError = nil
		}
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
	}

	query, args, err := qb.InsertModel("job_dispatch_events", model, `ON CONFLICT (dispatch_id) DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    competition_public_id = EXCLUDED.competition_public_id,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_at
        ELSE COALESCE(job_dispatch_events.sent_at, EXCLUDED.sent_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status IN ('completed', 'skipped') THEN EXCLUDED.completed_at
        ELSE job_dispatch_events.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_dispatch_events.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status IN ('failed', 'skipped') THEN EXCLUDED.last_error
        ELSE NULL
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, job_dispatch_events.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, job_dispatch_events.span_id),
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "upsert job dispatch dispatch_id=%s status=%s", dispatchID, event.Status)
	}

	return nil
}

func (r *JobDispatchRepository) ListByCompetition(ctx context.Context, competitionID string) ([]jobscheduler.DispatchEvent, error) {
	query, args, err := qb.Select(
		"dispatch_id", "job_name", "job_path", "competition_public_id", "payload",
		"status", "last_error", "trace_id", "span_id", "updated_at",
	).From("job_dispatch_events").
		Where(qb.Eq("competition_public_id", competitionID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrapf(err, "select job dispatches competition=%s", competitionID)
	}

	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		event, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode job dispatch payload dispatch_id=%s: %w", row.DispatchID, err)
		}
		out = append(out, event)
	}
	return out, nil
}
