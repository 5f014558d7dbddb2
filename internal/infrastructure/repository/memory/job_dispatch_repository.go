package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
)

// JobDispatchRepository keeps the latest event per dispatch id.
type JobDispatchRepository struct {
	mu     sync.RWMutex
	order  []string
	events map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.DispatchID]; !exists {
		r.order = append(r.order, event.DispatchID)
	}
	r.events[event.DispatchID] = event
	return nil
}

func (r *JobDispatchRepository) ListByCompetition(_ context.Context, competitionID string) ([]jobscheduler.DispatchEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0)
	for _, dispatchID := range r.order {
		if event := r.events[dispatchID]; event.CompetitionID == competitionID {
			out = append(out, event)
		}
	}
	return out, nil
}
