package fixture

import "context"

type Repository interface {
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListByIDs(ctx context.Context, fixtureIDs []string) ([]Fixture, error)
	Upsert(ctx context.Context, fixtures []Fixture) error
}
