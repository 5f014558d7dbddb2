package postgres

import (
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
)

type jobDispatchInsertModel struct {
	DispatchID    string     `db:"dispatch_id"`
	JobName       string     `db:"job_name"`
	JobPath       string     `db:"job_path"`
	CompetitionID string     `db:"competition_public_id"`
	Payload       string     `db:"payload"`
	Status        string     `db:"status"`
	SentAt        *time.Time `db:"sent_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	FailedAt      *time.Time `db:"failed_at"`
	LastError     *string    `db:"last_error"`
	TraceID       *string    `db:"trace_id"`
	SpanID        *string    `db:"span_id"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type jobDispatchTableModel struct {
	DispatchID    string    `db:"dispatch_id"`
	JobName       string    `db:"job_name"`
	JobPath       string    `db:"job_path"`
	CompetitionID string    `db:"competition_public_id"`
	Payload       []byte    `db:"payload"`
	Status        string    `db:"status"`
	LastError     *string   `db:"last_error"`
	TraceID       *string   `db:"trace_id"`
	SpanID        *string   `db:"span_id"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (m jobDispatchTableModel) toDomain() (jobscheduler.DispatchEvent, error) {
	payload := make(map[string]any)
	if err := unmarshalJSON(m.Payload, &payload); err != nil {
		return jobscheduler.DispatchEvent{}, err
	}
	return jobscheduler.DispatchEvent{
		DispatchID:    m.DispatchID,
		JobName:       m.JobName,
		JobPath:       m.JobPath,
		CompetitionID: m.CompetitionID,
		Status:        jobscheduler.DispatchStatus(m.Status),
		Payload:       payload,
		ErrorMessage:  derefString(m.LastError),
		OccurredAt:    m.UpdatedAt,
		TraceID:       derefString(m.TraceID),
		SpanID:        derefString(m.SpanID),
	}, nil
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
