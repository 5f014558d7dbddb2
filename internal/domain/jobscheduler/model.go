package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
	StatusSkipped   DispatchStatus = "skipped"
)

// DispatchEvent records one step of a background job's life. Events with
// the same DispatchID describe the same job.
type DispatchEvent struct {
	DispatchID    string
	JobName       string
	JobPath       string
	CompetitionID string
	Status        DispatchStatus
	Payload       map[string]any
	ErrorMessage  string
	OccurredAt    time.Time
	TraceID       string
	SpanID        string
}
