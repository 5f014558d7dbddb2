package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/fantasy-contest/internal/mocks/usecase"
	"github.com/stretchr/testify/mock"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("settle", "cmp:weekend/cup 1", at, 5*time.Minute)

	if strings.Contains(got, ":") {
		t.Fatalf("dedup key must not contain colon, got=%q", got)
	}

	want := "settle-cmp-weekend-cup-1-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}

func TestJobOrchestratorService_DirectSweepSettlesDueCompetitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)
	dispatches := memory.NewJobDispatchRepository()

	service := NewJobOrchestratorService(h.competitions, h.compService, h.service, nil, dispatches, JobOrchestratorConfig{Workers: 2}, nil)
	result, err := service.RunSettlementSweep(ctx, SweepInput{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Mode != "direct" || result.Scanned != 2 || result.Locked != 2 || result.Settled != 2 || result.Failed != 0 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if len(result.Results) != 2 || result.Results[0].CompetitionID != memory.CompetitionIDDemoCup {
		t.Fatalf("unexpected per-competition results: %+v", result.Results)
	}

	events, err := dispatches.ListByCompetition(ctx, memory.CompetitionIDDemoPeer)
	if err != nil {
		t.Fatalf("list dispatch events: %v", err)
	}
	if len(events) != 1 || events[0].Status != jobscheduler.StatusCompleted {
		t.Fatalf("unexpected dispatch events: %+v", events)
	}

	again, err := service.RunSettlementSweep(ctx, SweepInput{})
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if again.Scanned != 0 || again.Settled != 0 {
		t.Fatalf("finished competitions were swept again: %+v", again)
	}
}

func TestJobOrchestratorService_SweepLeavesOpenWindowsAlone(t *testing.T) {
	t.Parallel()

	h := newSettlementHarness(t)
	queue := usecasemock.NewJobQueue(t)

	service := NewJobOrchestratorService(h.competitions, h.compService, h.service, queue, nil, JobOrchestratorConfig{}, nil)
	result, err := service.RunSettlementSweep(context.Background(), SweepInput{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Mode != "queue" || result.Scanned != 2 || result.Locked != 0 || result.Queued != 0 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
}

func TestJobOrchestratorService_QueueSweepEnqueuesSettleJobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newSettlementHarness(t)
	h.finishFixtures(t)
	dispatches := memory.NewJobDispatchRepository()
	queue := usecasemock.NewJobQueue(t)

	queue.
		On("Enqueue", mock.Anything, jobPathSettle, mock.Anything, time.Duration(0), mock.MatchedBy(func(id string) bool {
			return strings.HasPrefix(id, "settle-cmp-demo-peer-")
		})).
		Return(nil).
		Once()
	queue.
		On("Enqueue", mock.Anything, jobPathSettle, mock.Anything, time.Duration(0), mock.MatchedBy(func(id string) bool {
			return strings.HasPrefix(id, "settle-cmp-demo-cup-")
		})).
		Return(errors.New("queue unavailable")).
		Once()

	service := NewJobOrchestratorService(h.competitions, h.compService, h.service, queue, dispatches, JobOrchestratorConfig{}, nil)
	result, err := service.RunSettlementSweep(ctx, SweepInput{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Queued != 1 || result.Failed != 1 || result.Locked != 2 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if len(result.QueuedOperations) != 1 || result.QueuedOperations[0] != "settle:"+memory.CompetitionIDDemoPeer {
		t.Fatalf("unexpected queued operations: %v", result.QueuedOperations)
	}

	cupEvents, _ := dispatches.ListByCompetition(ctx, memory.CompetitionIDDemoCup)
	if len(cupEvents) != 1 || cupEvents[0].Status != jobscheduler.StatusFailed {
		t.Fatalf("expected failed dispatch for cup, got %+v", cupEvents)
	}

	// The queue delivers the job back to the settle endpoint.
	peerEvents, _ := dispatches.ListByCompetition(ctx, memory.CompetitionIDDemoPeer)
	res, err := service.SettleCompetitionJob(ctx, SettleJobInput{
		CompetitionID: memory.CompetitionIDDemoPeer,
		DispatchID:    peerEvents[0].DispatchID,
	})
	if err != nil {
		t.Fatalf("settle job: %v", err)
	}
	if res.Outcome != "finished" {
		t.Fatalf("unexpected job outcome: %+v", res)
	}
	peerEvents, _ = dispatches.ListByCompetition(ctx, memory.CompetitionIDDemoPeer)
	if len(peerEvents) != 1 || peerEvents[0].Status != jobscheduler.StatusCompleted {
		t.Fatalf("expected the dispatch to be marked completed, got %+v", peerEvents)
	}
}

func TestJobOrchestratorService_DirectFlagBypassesQueue(t *testing.T) {
	t.Parallel()

	h := newSettlementHarness(t)
	h.finishFixtures(t)
	queue := usecasemock.NewJobQueue(t)

	service := NewJobOrchestratorService(h.competitions, h.compService, h.service, queue, nil, JobOrchestratorConfig{}, nil)
	result, err := service.RunSettlementSweep(context.Background(), SweepInput{CompetitionID: memory.CompetitionIDDemoPeer, Direct: true})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Mode != "direct" || result.Scanned != 1 || result.Settled != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
