package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
)

type FixtureRepository struct {
	mu    sync.RWMutex
	items map[string]fixture.Fixture
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		items[item.ID] = item
	}
	return &FixtureRepository{items: items}
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[fixtureID]
	return item, ok, nil
}

func (r *FixtureRepository) ListByIDs(_ context.Context, fixtureIDs []string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(fixtureIDs))
	for _, fixtureID := range fixtureIDs {
		if item, ok := r.items[fixtureID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *FixtureRepository) Upsert(_ context.Context, fixtures []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range fixtures {
		r.items[item.ID] = mergeFixture(r.items[item.ID], item)
	}
	return nil
}

// mergeFixture keeps stored fields the update leaves empty and the first
// recorded finish time.
func mergeFixture(current, next fixture.Fixture) fixture.Fixture {
	if current.ID == "" {
		return next
	}
	if next.HomeTeam == "" {
		next.HomeTeam = current.HomeTeam
	}
	if next.AwayTeam == "" {
		next.AwayTeam = current.AwayTeam
	}
	if next.KickoffAt.IsZero() {
		next.KickoffAt = current.KickoffAt
	}
	if current.FinishedAt != nil {
		next.FinishedAt = current.FinishedAt
	}
	return next
}
