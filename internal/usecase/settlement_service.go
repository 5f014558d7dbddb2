package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/platform/id"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type SettlementConfig struct {
	LockTTL time.Duration
}

// SettlementService drives a competition from locked through scoring to
// finished. Every trigger (scheduler, queue job, admin) enters through
// TriggerSettlement.
type SettlementService struct {
	competitionRepo competition.Repository
	statRepo        matchstat.Repository
	ruleRepo        scoring.RuleRepository
	locker          settlement.Locker
	competitions    *CompetitionService
	aggregator      *SquadAggregator
	ranker          *CompetitionRanker
	distributor     *PrizeDistributor
	ids             id.Generator
	validate        *validator.Validate
	cfg             SettlementConfig
	logger          *logging.Logger
	now             func() time.Time
}

func NewSettlementService(
	competitionRepo competition.Repository,
	statRepo matchstat.Repository,
	ruleRepo scoring.RuleRepository,
	locker settlement.Locker,
	competitions *CompetitionService,
	distributor *PrizeDistributor,
	ids id.Generator,
	cfg SettlementConfig,
	logger *logging.Logger,
) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}

	return &SettlementService{
		competitionRepo: competitionRepo,
		statRepo:        statRepo,
		ruleRepo:        ruleRepo,
		locker:          locker,
		competitions:    competitions,
		aggregator:      NewSquadAggregator(),
		ranker:          NewCompetitionRanker(),
		distributor:     distributor,
		ids:             ids,
		validate:        newValidator(),
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
	}
}

// TriggerSettlement settles one competition at most once. Concurrent or
// repeated calls observe the held lease or the finished status and return
// OutcomeSkipped without side effects.
func (s *SettlementService) TriggerSettlement(ctx context.Context, competitionID string) (settlement.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.TriggerSettlement",
		attribute.String("competition.id", competitionID),
	)
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return settlement.Result{}, fmt.Errorf("%w: competition id is required", ErrInvalidInput)
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return settlement.Result{}, fmt.Errorf("generate settlement run id: %w", err)
	}
	result := settlement.Result{CompetitionID: competitionID, RunID: runID, Distributed: decimal.Zero}
	logger := s.logger.With("competition_id", competitionID, "run_id", runID)

	lease, acquired, err := s.locker.TryAcquire(ctx, competitionID, runID, s.cfg.LockTTL)
	if err != nil {
		span.RecordError(err)
		return result, fmt.Errorf("%w: acquire settlement lock: %w", ErrDependencyUnavailable, err)
	}
	if !acquired {
		logger.InfoContext(ctx, "settlement skipped",
			"reason", settlement.ReasonLockHeld,
			"error", ErrLockContention,
		)
		return skippedResult(result, settlement.ReasonLockHeld), nil
	}
	defer s.releaseLease(ctx, lease, logger)

	result, err = s.settle(ctx, result, logger)
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (s *SettlementService) settle(ctx context.Context, result settlement.Result, logger *logging.Logger) (settlement.Result, error) {
	comp, exists, err := s.competitionRepo.GetByID(ctx, result.CompetitionID)
	if err != nil {
		return result, fmt.Errorf("get competition for settlement: %w", err)
	}
	if !exists {
		return result, fmt.Errorf("%w: competition=%s", ErrNotFound, result.CompetitionID)
	}

	status := comp.Info().Status
	if status == competition.StatusFinished {
		logger.DebugContext(ctx, "settlement skipped", "reason", settlement.ReasonAlreadySettled, "error", ErrAlreadySettled)
		result.SettledAt = comp.Info().SettledAt
		return skippedResult(result, settlement.ReasonAlreadySettled), nil
	}

	entries, err := s.competitionRepo.ListEntries(ctx, result.CompetitionID)
	if err != nil {
		return result, fmt.Errorf("list entries for settlement: %w", err)
	}
	rules, err := s.loadRules(ctx, comp.Info().Sport)
	if err != nil {
		logger.ErrorContext(ctx, "settlement rejected", "alert", true, "error", err)
		return result, err
	}
	if _, err := s.validateConfig(comp, len(entries)); err != nil {
		logger.ErrorContext(ctx, "settlement rejected", "alert", true, "error", err)
		return result, err
	}

	if status == competition.StatusOpen {
		locked, err := s.competitions.CloseMatchWindow(ctx, comp)
		if err != nil {
			return result, err
		}
		if !locked {
			logger.InfoContext(ctx, "settlement skipped", "reason", settlement.ReasonMatchWindowOpen)
			return skippedResult(result, settlement.ReasonMatchWindowOpen), nil
		}
		// Joins were possible until the lock; read the final field.
		if entries, err = s.competitionRepo.ListEntries(ctx, result.CompetitionID); err != nil {
			return result, fmt.Errorf("list entries after lock: %w", err)
		}
		status = competition.StatusLocked
	}

	if status == competition.StatusLocked {
		swapped, err := s.competitionRepo.TransitionStatus(ctx, result.CompetitionID, competition.StatusLocked, competition.StatusScoring, s.now().UTC())
		if err != nil {
			return result, fmt.Errorf("transition competition to scoring: %w", err)
		}
		if !swapped {
			logger.InfoContext(ctx, "settlement skipped", "reason", settlement.ReasonStatusChanged)
			return skippedResult(result, settlement.ReasonStatusChanged), nil
		}
	}

	terms := comp.Terms(len(entries))
	stats, err := s.statRepo.ListByFixtures(ctx, comp.Info().FixtureIDs)
	if err != nil {
		return result, fmt.Errorf("list statistics for settlement: %w", err)
	}

	scores, scoreErrs := s.aggregator.AggregateAll(entries, NewStatisticSnapshot(stats), rules)
	incomplete := make([]string, 0)
	for idx := range entries {
		entries[idx].Score = scores[idx].Score
		entries[idx].Incomplete = false
		if scoreErrs[idx] == nil {
			continue
		}
		// Held at 0 and ranked like any other entry, so it can still win
		// when every complete score is negative.
		entries[idx].Score = decimal.Zero
		entries[idx].Incomplete = true
		incomplete = append(incomplete, entries[idx].ID)
		logger.WarnContext(ctx, "entry scored as incomplete", "entry_id", entries[idx].ID, "error", scoreErrs[idx])
	}

	ranked := s.ranker.Rank(entries, terms.WinnerCount)
	distribution, err := s.distributor.Distribute(terms, ranked)
	if err != nil {
		logger.ErrorContext(ctx, "settlement rejected", "alert", true, "error", err)
		return result, err
	}

	settledAt := s.now().UTC()
	err = s.distributor.Settle(ctx, SettleInput{
		CompetitionID: result.CompetitionID,
		RunID:         result.RunID,
		Ranked:        ranked,
		Distribution:  distribution,
		Events:        completionEvents(result.CompetitionID, ranked, settledAt),
		SettledAt:     settledAt,
	})
	switch {
	case errors.Is(err, ErrAlreadySettled):
		logger.DebugContext(ctx, "settlement skipped", "reason", settlement.ReasonAlreadySettled, "error", err)
		return skippedResult(result, settlement.ReasonAlreadySettled), nil
	case err != nil:
		logger.ErrorContext(ctx, "settlement persistence failed", "alert", true, "error", err)
		return result, err
	}

	result.Outcome = settlement.OutcomeFinished
	result.Participants = len(ranked)
	result.Winners = len(distribution.Payouts)
	result.Distributed = distribution.Total()
	result.SettledAt = &settledAt
	if len(incomplete) > 0 {
		result.Outcome = settlement.OutcomePartial
		result.IncompleteEntries = incomplete
		logger.ErrorContext(ctx, "competition settled with incomplete entries",
			"alert", true,
			"incomplete_entries", incomplete,
		)
	}

	logger.InfoContext(ctx, "competition settled",
		"outcome", result.Outcome,
		"participants", result.Participants,
		"winners", result.Winners,
		"distributed", result.Distributed,
	)
	return result, nil
}

// validateConfig checks the settlement terms before any state changes so an
// invalid competition stays where it is for manual correction.
func (s *SettlementService) validateConfig(comp competition.Competition, participants int) (competition.Terms, error) {
	terms := comp.Terms(participants)
	if err := s.validate.Struct(terms); err != nil {
		return terms, fmt.Errorf("%w: competition=%s: %s", ErrConfiguration, comp.Info().ID, describeValidation(err))
	}

	if err := competition.CheckPrecision(comp); err != nil {
		return terms, fmt.Errorf("%w: competition=%s: %v", ErrConfiguration, comp.Info().ID, err)
	}
	if minimum := comp.Info().MinParticipants; minimum > 0 && participants < minimum {
		return terms, fmt.Errorf("%w: competition=%s: %d participants, minimum is %d", ErrConfiguration, comp.Info().ID, participants, minimum)
	}

	switch c := comp.(type) {
	case competition.Peer:
		if !c.Stake.IsPositive() {
			return terms, fmt.Errorf("%w: competition=%s: peer stake must be positive", ErrConfiguration, c.ID)
		}
	case competition.Tournament:
		if !c.PoolAmount.IsPositive() {
			return terms, fmt.Errorf("%w: competition=%s: prize pool amount is missing", ErrConfiguration, c.ID)
		}
	default:
		return terms, fmt.Errorf("%w: unsupported competition type %T", ErrConfiguration, comp)
	}

	return terms, nil
}

func (s *SettlementService) loadRules(ctx context.Context, sport string) (scoring.RuleSet, error) {
	sport = strings.TrimSpace(strings.ToLower(sport))
	if sport == "" {
		sport = scoring.SportFootball
	}

	rules, exists, err := s.ruleRepo.GetRuleSet(ctx, sport)
	if err != nil {
		return scoring.RuleSet{}, fmt.Errorf("load points rules sport=%s: %w", sport, err)
	}
	if !exists {
		return scoring.RuleSet{}, fmt.Errorf("%w: no points rules for sport=%s", ErrConfiguration, sport)
	}
	return rules, nil
}

func completionEvents(competitionID string, ranked []competition.Entry, settledAt time.Time) []notification.Event {
	events := make([]notification.Event, 0, len(ranked))
	for _, entry := range ranked {
		events = append(events, notification.Event{
			ID:     "settlement_completed:" + competitionID + ":" + entry.ID,
			UserID: entry.UserID,
			Kind:   notification.KindSettlementCompleted,
			Payload: map[string]any{
				"competition_id": competitionID,
				"entry_id":       entry.ID,
				"rank":           entry.Rank,
				"score":          entry.Score.String(),
				"incomplete":     entry.Incomplete,
			},
			CreatedAt: settledAt,
		})
	}
	return events
}

func (s *SettlementService) releaseLease(ctx context.Context, lease settlement.Lease, logger *logging.Logger) {
	if err := s.locker.Release(context.WithoutCancel(ctx), lease); err != nil {
		logger.WarnContext(ctx, "release settlement lock failed", "error", err)
	}
}

func skippedResult(result settlement.Result, reason string) settlement.Result {
	result.Outcome = settlement.OutcomeSkipped
	result.Reason = reason
	return result
}
