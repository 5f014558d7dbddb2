package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	jobNameSettle = "settle"
	jobPathSettle = "/v1/internal/jobs/settle"
)

// JobQueue delivers a job to an HTTP path after delay. deduplicationID lets
// the queue drop repeats of the same job.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type JobOrchestratorConfig struct {
	Workers     int
	DedupWindow time.Duration
}

type SweepInput struct {
	CompetitionID string
	// Direct settles in-process even when a queue is configured.
	Direct bool
}

type SweepResult struct {
	Mode             string              `json:"mode"`
	Scanned          int                 `json:"scanned"`
	Locked           int                 `json:"locked"`
	Queued           int                 `json:"queued"`
	Settled          int                 `json:"settled"`
	Skipped          int                 `json:"skipped"`
	Failed           int                 `json:"failed"`
	QueuedOperations []string            `json:"queued_operations"`
	Results          []settlement.Result `json:"-"`
}

type SettleJobInput struct {
	CompetitionID string
	DispatchID    string
}

// JobOrchestratorService finds competitions due for settlement and hands
// them to the queue or settles them on a local worker pool.
type JobOrchestratorService struct {
	competitionRepo competition.Repository
	competitions    *CompetitionService
	settlements     *SettlementService
	queue           JobQueue
	dispatchRepo    jobscheduler.Repository
	cfg             JobOrchestratorConfig
	logger          *logging.Logger
	now             func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// NewJobOrchestratorService settles in-process when queue is nil.
func NewJobOrchestratorService(
	competitionRepo competition.Repository,
	competitions *CompetitionService,
	settlements *SettlementService,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobOrchestratorConfig,
	logger *logging.Logger,
) *JobOrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 5 * time.Minute
	}

	return &JobOrchestratorService{
		competitionRepo: competitionRepo,
		competitions:    competitions,
		settlements:     settlements,
		queue:           queue,
		dispatchRepo:    dispatchRepo,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *JobOrchestratorService) RunSettlementSweep(ctx context.Context, input SweepInput) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService.RunSettlementSweep")
	defer span.End()

	candidates, err := s.pickCompetitions(ctx, input.CompetitionID)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{
		Mode:             "direct",
		Scanned:          len(candidates),
		QueuedOperations: make([]string, 0, len(candidates)),
	}
	if s.queue != nil && !input.Direct {
		result.Mode = "queue"
	}

	due := make([]string, 0, len(candidates))
	for _, item := range candidates {
		info := item.Info()
		switch info.Status {
		case competition.StatusOpen:
			locked, err := s.competitions.CloseMatchWindow(ctx, item)
			if err != nil {
				s.logger.WarnContext(ctx, "close match window failed", "competition_id", info.ID, "error", err)
				continue
			}
			if !locked {
				continue
			}
			result.Locked++
			due = append(due, info.ID)
		case competition.StatusLocked, competition.StatusScoring:
			due = append(due, info.ID)
		}
	}
	span.SetAttributes(attribute.Int("competitions.due", len(due)))

	if len(due) == 0 {
		return result, nil
	}

	now := s.now().UTC()
	if result.Mode == "queue" {
		for _, competitionID := range due {
			if err := s.enqueueSettlement(ctx, competitionID, now); err != nil {
				result.Failed++
				s.logger.WarnContext(ctx, "enqueue settlement failed", "competition_id", competitionID, "error", err)
				continue
			}
			result.Queued++
			result.QueuedOperations = append(result.QueuedOperations, jobNameSettle+":"+competitionID)
		}
		return result, nil
	}

	if err := s.settleDirect(ctx, due, now, &result); err != nil {
		return result, err
	}
	return result, nil
}

// SettleCompetitionJob runs one settlement and records its dispatch outcome.
func (s *JobOrchestratorService) SettleCompetitionJob(ctx context.Context, input SettleJobInput) (settlement.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService.SettleCompetitionJob",
		attribute.String("competition.id", input.CompetitionID),
	)
	defer span.End()

	res, err := s.settlements.TriggerSettlement(ctx, input.CompetitionID)

	event := jobscheduler.DispatchEvent{
		DispatchID:    strings.TrimSpace(input.DispatchID),
		JobName:       jobNameSettle,
		JobPath:       jobPathSettle,
		CompetitionID: input.CompetitionID,
		Status:        jobscheduler.StatusCompleted,
		Payload: map[string]any{
			"competition_id": input.CompetitionID,
			"run_id":         res.RunID,
			"outcome":        string(res.Outcome),
			"reason":         res.Reason,
		},
	}
	switch {
	case err != nil:
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
	case res.Outcome == settlement.OutcomeSkipped:
		event.Status = jobscheduler.StatusSkipped
	}
	s.recordDispatchEvent(ctx, event)

	return res, err
}

func (s *JobOrchestratorService) settleDirect(ctx context.Context, competitionIDs []string, now time.Time, result *SweepResult) error {
	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create settlement worker pool: %w", err)
	}
	defer pool.Release()

	var settledCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32
	results := make(chan settlement.Result, len(competitionIDs))

	var workers sync.WaitGroup
	for _, competitionID := range competitionIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			res, err := s.SettleCompetitionJob(ctx, SettleJobInput{
				CompetitionID: competitionID,
				DispatchID:    dedupKey(jobNameSettle, competitionID, now, s.cfg.DedupWindow),
			})
			switch {
			case err != nil:
				failedCount.Add(1)
				s.logger.ErrorContext(ctx, "settlement failed", "competition_id", competitionID, "error", err)
			case res.Outcome == settlement.OutcomeSkipped:
				skippedCount.Add(1)
			default:
				settledCount.Add(1)
			}
			results <- res
		}); err != nil {
			workers.Done()
			return fmt.Errorf("submit settlement to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for res := range results {
		result.Results = append(result.Results, res)
	}
	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].CompetitionID < result.Results[j].CompetitionID
	})

	result.Settled = int(settledCount.Load())
	result.Skipped = int(skippedCount.Load())
	result.Failed = int(failedCount.Load())
	return nil
}

func (s *JobOrchestratorService) pickCompetitions(ctx context.Context, competitionID string) ([]competition.Competition, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		items, err := s.competitionRepo.ListByStatus(ctx, competition.StatusOpen, competition.StatusLocked, competition.StatusScoring)
		if err != nil {
			return nil, fmt.Errorf("list competitions for settlement sweep: %w", err)
		}
		return items, nil
	}

	item, exists, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("get competition for settlement sweep: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: competition=%s", ErrNotFound, competitionID)
	}
	return []competition.Competition{item}, nil
}

func (s *JobOrchestratorService) enqueueSettlement(ctx context.Context, competitionID string, now time.Time) error {
	dedupID := dedupKey(jobNameSettle, competitionID, now, s.cfg.DedupWindow)
	payload := map[string]any{
		"competition_id": competitionID,
		"dispatch_id":    dedupID,
	}

	event := jobscheduler.DispatchEvent{
		DispatchID:    dedupID,
		JobName:       jobNameSettle,
		JobPath:       jobPathSettle,
		CompetitionID: competitionID,
		Status:        jobscheduler.StatusSent,
		Payload:       payload,
		OccurredAt:    now,
	}
	if err := s.queue.Enqueue(ctx, jobPathSettle, payload, 0, dedupID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return fmt.Errorf("enqueue settle competition=%s: %w", competitionID, err)
	}
	s.recordDispatchEvent(ctx, event)
	return nil
}

func dedupKey(prefix, competitionID string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + sanitizeDedupSegment(competitionID) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *JobOrchestratorService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}
