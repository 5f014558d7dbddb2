package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
)

type countingRules struct {
	calls atomic.Int32
	err   error
}

func (c *countingRules) GetRuleSet(_ context.Context, sport string) (scoring.RuleSet, bool, error) {
	c.calls.Add(1)
	if c.err != nil {
		return scoring.RuleSet{}, false, c.err
	}
	if sport != scoring.SportFootball {
		return scoring.RuleSet{}, false, nil
	}
	return scoring.DefaultFootballRuleSet(), true, nil
}

func TestRulesRepositoryCachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	next := &countingRules{}
	repo := NewRulesRepository(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rs, ok, err := repo.GetRuleSet(ctx, scoring.SportFootball)
		if err != nil || !ok {
			t.Fatalf("get football rules: ok=%v err=%v", ok, err)
		}
		if rs.Sport != scoring.SportFootball {
			t.Fatalf("unexpected sport: %s", rs.Sport)
		}
		if _, ok, err := repo.GetRuleSet(ctx, "cricket"); err != nil || ok {
			t.Fatalf("expected cached miss for cricket: ok=%v err=%v", ok, err)
		}
	}
	if got := next.calls.Load(); got != 2 {
		t.Fatalf("expected 2 loads, got %d", got)
	}

	repo.Invalidate(ctx, scoring.SportFootball)
	if _, _, err := repo.GetRuleSet(ctx, scoring.SportFootball); err != nil {
		t.Fatalf("reload football rules: %v", err)
	}
	if got := next.calls.Load(); got != 3 {
		t.Fatalf("expected reload after invalidate, got %d loads", got)
	}
}

func TestRulesRepositoryDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	next := &countingRules{err: errors.New("db down")}
	repo := NewRulesRepository(next, time.Minute)

	for i := 0; i < 2; i++ {
		if _, _, err := repo.GetRuleSet(context.Background(), scoring.SportFootball); err == nil {
			t.Fatalf("expected error")
		}
	}
	if got := next.calls.Load(); got != 2 {
		t.Fatalf("expected every failed load to reach the store, got %d", got)
	}
}
