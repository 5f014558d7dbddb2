package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo dataset into an empty database. It does
// nothing once any competition exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM competitions`); err != nil {
		return fmt.Errorf("count competitions for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	rules := NewRulesRepository(db)
	if _, ok, err := rules.GetRuleSet(ctx, scoring.SportFootball); err != nil {
		return fmt.Errorf("check seed rules: %w", err)
	} else if !ok {
		if err := rules.SaveRuleSet(ctx, scoring.DefaultFootballRuleSet()); err != nil {
			return fmt.Errorf("seed rules: %w", err)
		}
	}

	if err := NewFixtureRepository(db).Upsert(ctx, memory.SeedFixtures()); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	stats := memory.SeedStatistics()
	for idx := range stats {
		stats[idx] = stats[idx].Normalize()
	}
	if _, err := NewMatchStatRepository(db).Upsert(ctx, stats); err != nil {
		return fmt.Errorf("seed statistics: %w", err)
	}

	competitions := NewCompetitionRepository(db)
	for _, item := range memory.SeedCompetitions() {
		if err := competitions.Create(ctx, item); err != nil {
			return fmt.Errorf("seed competition %s: %w", item.Info().ID, err)
		}
	}

	for _, entry := range memory.SeedEntries() {
		if err := competitions.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("seed entry %s: %w", entry.ID, err)
		}

		sqlQuery, args, err := sqlx.Named(`
INSERT INTO wallets (user_id, balance)
VALUES (:user_id, 0)
ON CONFLICT (user_id) DO NOTHING`, map[string]any{
			"user_id": entry.UserID,
		})
		if err != nil {
			return fmt.Errorf("bind seed wallet %s query: %w", entry.UserID, err)
		}
		if _, err := db.ExecContext(ctx, db.Rebind(sqlQuery), args...); err != nil {
			return fmt.Errorf("seed wallet %s: %w", entry.UserID, err)
		}
	}

	return nil
}
