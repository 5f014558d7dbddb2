package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) RunSettlementSweep(context.Context, usecase.SweepInput) (usecase.SweepResult, error) {
	r.calls.Add(1)
	return usecase.SweepResult{Mode: "direct"}, nil
}

func TestNewSettlementSweepValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewSettlementSweep(nil, time.Minute, nil); err == nil {
		t.Fatalf("expected error for nil runner")
	}
	if _, err := NewSettlementSweep(&countingRunner{}, 0, nil); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestSettlementSweepRunInvokesRunner(t *testing.T) {
	t.Parallel()

	runner := &countingRunner{}
	sweep, err := NewSettlementSweep(runner, time.Minute, nil)
	if err != nil {
		t.Fatalf("new sweep: %v", err)
	}
	if sweep.timeout != time.Minute {
		t.Fatalf("expected timeout to follow interval, got %s", sweep.timeout)
	}

	sweep.run()
	sweep.run()
	if got := runner.calls.Load(); got != 2 {
		t.Fatalf("expected 2 sweeps, got %d", got)
	}
}

func TestSettlementSweepStartAndStop(t *testing.T) {
	t.Parallel()

	sweep, err := NewSettlementSweep(&countingRunner{}, time.Hour, nil)
	if err != nil {
		t.Fatalf("new sweep: %v", err)
	}
	if err := sweep.Start(); err != nil {
		t.Fatalf("start sweep: %v", err)
	}
	if err := sweep.Stop(); err != nil {
		t.Fatalf("stop sweep: %v", err)
	}
}
