package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

// SweepRunner is satisfied by usecase.JobOrchestratorService.
type SweepRunner interface {
	RunSettlementSweep(ctx context.Context, input usecase.SweepInput) (usecase.SweepResult, error)
}

// SettlementSweep runs the settlement sweep on a fixed interval. A run that
// is still going when the next one is due makes the scheduler skip it.
type SettlementSweep struct {
	s        gocron.Scheduler
	runner   SweepRunner
	interval time.Duration
	timeout  time.Duration
	logger   *logging.Logger
}

func NewSettlementSweep(runner SweepRunner, interval time.Duration, logger *logging.Logger, opts ...gocron.SchedulerOption) (*SettlementSweep, error) {
	if runner == nil {
		return nil, fmt.Errorf("sweep runner is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be > 0")
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts = append([]gocron.SchedulerOption{gocron.WithLocation(time.UTC)}, opts...)
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	timeout := interval
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}

	return &SettlementSweep{
		s:        s,
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		logger:   logger.Named("settlement_sweep"),
	}, nil
}

func (w *SettlementSweep) Start() error {
	_, err := w.s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.run),
		gocron.WithName("settlement-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create settlement sweep job: %w", err)
	}

	w.s.Start()
	w.logger.Info("settlement sweep scheduled", "interval", w.interval)
	return nil
}

func (w *SettlementSweep) Stop() error {
	return w.s.Shutdown()
}

func (w *SettlementSweep) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	result, err := w.runner.RunSettlementSweep(ctx, usecase.SweepInput{})
	if err != nil {
		w.logger.ErrorContext(ctx, "settlement sweep failed", "error", err)
		return
	}
	if result.Scanned == 0 {
		return
	}
	w.logger.InfoContext(ctx, "settlement sweep finished",
		"mode", result.Mode,
		"scanned", result.Scanned,
		"locked", result.Locked,
		"queued", result.Queued,
		"settled", result.Settled,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
}
