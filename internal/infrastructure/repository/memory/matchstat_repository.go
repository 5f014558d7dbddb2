package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
)

type MatchStatRepository struct {
	mu    sync.RWMutex
	items map[matchstat.Key]matchstat.Statistic
}

func NewMatchStatRepository(seed []matchstat.Statistic) *MatchStatRepository {
	items := make(map[matchstat.Key]matchstat.Statistic, len(seed))
	for _, stat := range seed {
		items[stat.Key()] = stat.Clone()
	}
	return &MatchStatRepository{items: items}
}

func (r *MatchStatRepository) Get(_ context.Context, playerID, fixtureID string) (matchstat.Statistic, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchstat.Key{PlayerID: playerID, FixtureID: fixtureID}]
	if !ok {
		return matchstat.Statistic{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *MatchStatRepository) ListByFixtures(_ context.Context, fixtureIDs []string) ([]matchstat.Statistic, error) {
	wanted := make(map[string]struct{}, len(fixtureIDs))
	for _, fixtureID := range fixtureIDs {
		wanted[fixtureID] = struct{}{}
	}

	r.mu.RLock()
	out := make([]matchstat.Statistic, 0)
	for _, item := range r.items {
		if _, ok := wanted[item.FixtureID]; ok {
			out = append(out, item.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out, nil
}

func (r *MatchStatRepository) Upsert(_ context.Context, stats []matchstat.Statistic) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	applied := 0
	for _, stat := range stats {
		if current, ok := r.items[stat.Key()]; ok && current.Finalized {
			continue
		}
		r.items[stat.Key()] = stat.Clone()
		applied++
	}
	return applied, nil
}

func (r *MatchStatRepository) FreezeFixture(_ context.Context, fixtureID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.items {
		if item.FixtureID != fixtureID || item.Finalized {
			continue
		}
		item.Finalized = true
		item.UpdatedAt = at
		r.items[key] = item
	}
	return nil
}
