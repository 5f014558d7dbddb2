package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

type fixtureTableModel struct {
	PublicID   string     `db:"public_id"`
	HomeTeam   string     `db:"home_team"`
	AwayTeam   string     `db:"away_team"`
	KickoffAt  *time.Time `db:"kickoff_at"`
	Status     string     `db:"status"`
	FinishedAt *time.Time `db:"finished_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	out := fixture.Fixture{
		ID:         m.PublicID,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Status:     m.Status,
		FinishedAt: m.FinishedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.KickoffAt != nil {
		out.KickoffAt = *m.KickoffAt
	}
	return out
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(qb.Eq("public_id", fixtureID)).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, crerr.Wrapf(err, "select fixture %s", fixtureID)
	}
	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByIDs(ctx context.Context, fixtureIDs []string) ([]fixture.Fixture, error) {
	if len(fixtureIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("fixtures").
		Where(qb.Any("public_id", pq.Array(fixtureIDs))).
		OrderBy("kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures by ids query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "select fixtures by ids")
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []fixture.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}

	models := make([]any, 0, len(fixtures))
	for _, item := range fixtures {
		var kickoff *time.Time
		if !item.KickoffAt.IsZero() {
			at := item.KickoffAt
			kickoff = &at
		}
		models = append(models, fixtureTableModel{
			PublicID:   item.ID,
			HomeTeam:   item.HomeTeam,
			AwayTeam:   item.AwayTeam,
			KickoffAt:  kickoff,
			Status:     item.Status,
			FinishedAt: item.FinishedAt,
			UpdatedAt:  item.UpdatedAt,
		})
	}

	query, args, err := qb.InsertModels("fixtures", models, `ON CONFLICT (public_id) DO UPDATE SET
    home_team = COALESCE(NULLIF(EXCLUDED.home_team, ''), fixtures.home_team),
    away_team = COALESCE(NULLIF(EXCLUDED.away_team, ''), fixtures.away_team),
    kickoff_at = COALESCE(EXCLUDED.kickoff_at, fixtures.kickoff_at),
    status = EXCLUDED.status,
    finished_at = COALESCE(fixtures.finished_at, EXCLUDED.finished_at),
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert fixtures query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrap(err, "upsert fixtures")
	}
	return nil
}
