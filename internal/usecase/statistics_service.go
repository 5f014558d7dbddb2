package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type StatisticsIngestResult struct {
	Received int `json:"received"`
	Applied  int `json:"applied"`
	Skipped  int `json:"skipped"`
}

type FixtureIngestResult struct {
	Upserted int `json:"upserted"`
	Frozen   int `json:"frozen"`
}

// StatisticsService is the idempotent upsert stream feeding match statistics.
// Statistics of a fixture become immutable once the fixture is terminal, and
// no new statistic is accepted for a terminal fixture.
type StatisticsService struct {
	statRepo    matchstat.Repository
	fixtureRepo fixture.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewStatisticsService(statRepo matchstat.Repository, fixtureRepo fixture.Repository, logger *logging.Logger) *StatisticsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatisticsService{
		statRepo:    statRepo,
		fixtureRepo: fixtureRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *StatisticsService) UpsertFixtures(ctx context.Context, fixtures []fixture.Fixture) (FixtureIngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.UpsertFixtures",
		attribute.Int("fixtures.count", len(fixtures)),
	)
	defer span.End()

	if len(fixtures) == 0 {
		return FixtureIngestResult{}, nil
	}

	now := s.now().UTC()
	items := make([]fixture.Fixture, 0, len(fixtures))
	for idx, item := range fixtures {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return FixtureIngestResult{}, fmt.Errorf("%w: fixture %d id is required", ErrInvalidInput, idx)
		}
		item.Status = fixture.NormalizeStatus(item.Status)
		if fixture.IsFinishedStatus(item.Status) && item.FinishedAt == nil {
			finished := now
			item.FinishedAt = &finished
		}
		item.UpdatedAt = now
		items = append(items, item)
	}

	if err := s.fixtureRepo.Upsert(ctx, items); err != nil {
		return FixtureIngestResult{}, fmt.Errorf("upsert fixtures: %w", err)
	}

	result := FixtureIngestResult{Upserted: len(items)}
	for _, item := range items {
		if !fixture.IsTerminalStatus(item.Status) {
			continue
		}
		if err := s.statRepo.FreezeFixture(ctx, item.ID, now); err != nil {
			return result, fmt.Errorf("freeze statistics fixture=%s: %w", item.ID, err)
		}
		result.Frozen++
	}

	if result.Frozen > 0 {
		s.logger.InfoContext(ctx, "fixture statistics frozen", "fixtures", result.Frozen)
	}
	return result, nil
}

func (s *StatisticsService) UpsertStatistics(ctx context.Context, stats []matchstat.Statistic) (StatisticsIngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.UpsertStatistics",
		attribute.Int("statistics.count", len(stats)),
	)
	defer span.End()

	result := StatisticsIngestResult{Received: len(stats)}
	if len(stats) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	seen := make(map[matchstat.Key]int, len(stats))
	items := make([]matchstat.Statistic, 0, len(stats))
	for idx, stat := range stats {
		stat.PlayerID = strings.TrimSpace(stat.PlayerID)
		stat.FixtureID = strings.TrimSpace(stat.FixtureID)
		if stat.PlayerID == "" || stat.FixtureID == "" {
			return StatisticsIngestResult{}, fmt.Errorf("%w: statistic %d requires player and fixture ids", ErrInvalidInput, idx)
		}
		for statType, value := range stat.Values {
			if value < 0 {
				return StatisticsIngestResult{}, fmt.Errorf("%w: statistic %d %s must not be negative", ErrInvalidInput, idx, statType)
			}
		}

		stat = stat.Normalize()
		stat.Finalized = false
		stat.UpdatedAt = now

		// Last write in a batch wins.
		if prev, dup := seen[stat.Key()]; dup {
			items[prev] = stat
			continue
		}
		seen[stat.Key()] = len(items)
		items = append(items, stat)
	}

	fixtureIDs := statisticFixtureIDs(items)
	closed, err := s.terminalFixtures(ctx, fixtureIDs)
	if err != nil {
		return StatisticsIngestResult{}, err
	}
	open := items[:0]
	for _, stat := range items {
		if _, ok := closed[stat.FixtureID]; ok {
			continue
		}
		open = append(open, stat)
	}
	if dropped := len(items) - len(open); dropped > 0 {
		s.logger.WarnContext(ctx, "ignored statistics for terminal fixtures", "skipped", dropped)
	}
	items = open

	applied, err := s.statRepo.Upsert(ctx, items)
	if err != nil {
		return StatisticsIngestResult{}, fmt.Errorf("upsert statistics: %w", err)
	}
	result.Applied = applied
	result.Skipped = len(stats) - applied

	if skipped := len(items) - applied; skipped > 0 {
		s.logger.WarnContext(ctx, "ignored updates for frozen statistics", "skipped", skipped)
	}

	// A fixture finishing while the batch was written must not leave open rows behind.
	if err := s.refreezeTerminal(ctx, statisticFixtureIDs(items), now); err != nil {
		return result, err
	}
	return result, nil
}

func (s *StatisticsService) terminalFixtures(ctx context.Context, fixtureIDs []string) (map[string]struct{}, error) {
	closed := make(map[string]struct{})
	if len(fixtureIDs) == 0 {
		return closed, nil
	}
	fixtures, err := s.fixtureRepo.ListByIDs(ctx, fixtureIDs)
	if err != nil {
		return nil, fmt.Errorf("list fixtures of statistics: %w", err)
	}
	for _, item := range fixtures {
		if fixture.IsTerminalStatus(item.Status) {
			closed[item.ID] = struct{}{}
		}
	}
	return closed, nil
}

func (s *StatisticsService) refreezeTerminal(ctx context.Context, fixtureIDs []string, at time.Time) error {
	closed, err := s.terminalFixtures(ctx, fixtureIDs)
	if err != nil {
		return err
	}
	for fixtureID := range closed {
		if err := s.statRepo.FreezeFixture(ctx, fixtureID, at); err != nil {
			return fmt.Errorf("freeze statistics fixture=%s: %w", fixtureID, err)
		}
	}
	return nil
}

func statisticFixtureIDs(stats []matchstat.Statistic) []string {
	seen := make(map[string]struct{}, len(stats))
	out := make([]string, 0, len(stats))
	for _, stat := range stats {
		if _, ok := seen[stat.FixtureID]; ok {
			continue
		}
		seen[stat.FixtureID] = struct{}{}
		out = append(out, stat.FixtureID)
	}
	return out
}
