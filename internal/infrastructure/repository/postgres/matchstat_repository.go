package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	qb "github.com/riskibarqy/fantasy-contest/internal/platform/querybuilder"
)

var statisticColumns = []string{"player_id", "fixture_public_id", "position", "stat_values", "finalized", "updated_at"}

type statisticTableModel struct {
	PlayerID  string    `db:"player_id"`
	FixtureID string    `db:"fixture_public_id"`
	Position  string    `db:"position"`
	Values    []byte    `db:"stat_values"`
	Finalized bool      `db:"finalized"`
	UpdatedAt time.Time `db:"updated_at"`
}

type statisticUpsertModel struct {
	PlayerID  string    `db:"player_id"`
	FixtureID string    `db:"fixture_public_id"`
	Position  string    `db:"position"`
	Values    string    `db:"stat_values"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m statisticTableModel) toDomain() (matchstat.Statistic, error) {
	values := make(map[matchstat.StatType]int64)
	if err := unmarshalJSON(m.Values, &values); err != nil {
		return matchstat.Statistic{}, fmt.Errorf("decode statistic values player=%s fixture=%s: %w", m.PlayerID, m.FixtureID, err)
	}
	return matchstat.Statistic{
		PlayerID:  m.PlayerID,
		FixtureID: m.FixtureID,
		Position:  matchstat.Position(m.Position),
		Values:    values,
		Finalized: m.Finalized,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

type MatchStatRepository struct {
	db *sqlx.DB
}

func NewMatchStatRepository(db *sqlx.DB) *MatchStatRepository {
	return &MatchStatRepository{db: db}
}

func (r *MatchStatRepository) Get(ctx context.Context, playerID, fixtureID string) (matchstat.Statistic, bool, error) {
	query, args, err := qb.Select(statisticColumns...).From("match_statistics").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("fixture_public_id", fixtureID),
		).
		ToSQL()
	if err != nil {
		return matchstat.Statistic{}, false, fmt.Errorf("build select statistic query: %w", err)
	}

	var row statisticTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchstat.Statistic{}, false, nil
		}
		return matchstat.Statistic{}, false, crerr.Wrap(err, "select statistic")
	}

	stat, err := row.toDomain()
	if err != nil {
		return matchstat.Statistic{}, false, err
	}
	return stat, true, nil
}

func (r *MatchStatRepository) ListByFixtures(ctx context.Context, fixtureIDs []string) ([]matchstat.Statistic, error) {
	if len(fixtureIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select(statisticColumns...).From("match_statistics").
		Where(qb.Any("fixture_public_id", pq.Array(fixtureIDs))).
		OrderBy("fixture_public_id", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select statistics by fixtures query: %w", err)
	}

	var rows []statisticTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "select statistics by fixtures")
	}

	out := make([]matchstat.Statistic, 0, len(rows))
	for _, row := range rows {
		stat, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, nil
}

// Upsert skips rows whose stored statistic is finalized; the returned count
// covers inserted and updated rows only.
func (r *MatchStatRepository) Upsert(ctx context.Context, stats []matchstat.Statistic) (int, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	models := make([]any, 0, len(stats))
	for _, stat := range stats {
		values, err := marshalJSON(stat.Values)
		if err != nil {
			return 0, fmt.Errorf("encode statistic values player=%s: %w", stat.PlayerID, err)
		}
		models = append(models, statisticUpsertModel{
			PlayerID:  stat.PlayerID,
			FixtureID: stat.FixtureID,
			Position:  string(stat.Position),
			Values:    values,
			UpdatedAt: stat.UpdatedAt,
		})
	}

	query, args, err := qb.InsertModels("match_statistics", models, `ON CONFLICT (player_id, fixture_public_id) DO UPDATE SET
    position = EXCLUDED.position,
    stat_values = EXCLUDED.stat_values,
    updated_at = EXCLUDED.updated_at
WHERE match_statistics.finalized = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("build upsert statistics query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, crerr.Wrap(err, "upsert statistics")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, crerr.Wrap(err, "read upsert statistics rows affected")
	}
	return int(affected), nil
}

func (r *MatchStatRepository) FreezeFixture(ctx context.Context, fixtureID string, at time.Time) error {
	query, args, err := qb.Update("match_statistics").
		Set("finalized", true).
		Set("updated_at", at).
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.Eq("finalized", false),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build freeze statistics query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "freeze statistics fixture=%s", fixtureID)
	}
	return nil
}
