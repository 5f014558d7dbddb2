package matchstat

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, playerID, fixtureID string) (Statistic, bool, error)
	ListByFixtures(ctx context.Context, fixtureIDs []string) ([]Statistic, error)
	// Upsert writes statistics that are not finalized yet and returns how many
	// rows were applied. Rows for finalized statistics are skipped.
	Upsert(ctx context.Context, stats []Statistic) (int, error)
	FreezeFixture(ctx context.Context, fixtureID string, at time.Time) error
}
