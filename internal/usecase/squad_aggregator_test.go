package usecase

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/shopspring/decimal"
)

func flatRuleSet() scoring.RuleSet {
	return scoring.RuleSet{
		Sport: scoring.SportFootball,
		Default: scoring.Rule{Points: map[matchstat.StatType]decimal.Decimal{
			matchstat.StatAppearance: decimal.NewFromInt(1),
			matchstat.StatGoals:      decimal.NewFromInt(5),
		}},
	}
}

func playerStat(playerID, fixtureID string, minutes, goals int64) matchstat.Statistic {
	return matchstat.Statistic{
		PlayerID:  playerID,
		FixtureID: fixtureID,
		Position:  matchstat.PositionForward,
		Values: map[matchstat.StatType]int64{
			matchstat.StatMinutesPlayed: minutes,
			matchstat.StatGoals:         goals,
		},
	}.Normalize()
}

func slot(mainID, subID string, stars int64) competition.Slot {
	return competition.Slot{
		Main:       competition.PlayerRef{PlayerID: mainID, FixtureID: "fx-1"},
		Substitute: competition.PlayerRef{PlayerID: subID, FixtureID: "fx-1"},
		StarRating: decimal.NewFromInt(stars),
	}
}

func TestSquadAggregator_Aggregate(t *testing.T) {
	t.Parallel()

	stats := NewStatisticSnapshot([]matchstat.Statistic{
		playerStat("p-main", "fx-1", 90, 2), // 11
		playerStat("p-bench", "fx-1", 0, 0),
		playerStat("p-sub", "fx-1", 30, 1), // 6
		playerStat("p-idle", "fx-1", 0, 0),
	})

	tests := []struct {
		name    string
		slot    competition.Slot
		want    string
		usedSub bool
	}{
		{name: "main played", slot: slot("p-main", "p-sub", 2), want: "22"},
		{name: "main benched falls back to substitute", slot: slot("p-bench", "p-sub", 3), want: "18", usedSub: true},
		{name: "main missing falls back to substitute", slot: slot("p-unknown", "p-sub", 1), want: "6", usedSub: true},
		{name: "nobody played keeps main", slot: slot("p-bench", "p-idle", 5), want: "0"},
		{name: "unset star rating counts as one", slot: slot("p-main", "p-sub", 0), want: "11"},
	}

	aggregator := NewSquadAggregator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			entry := competition.Entry{ID: "e-1", Squad: []competition.Slot{tc.slot}}
			got, err := aggregator.Aggregate(entry, stats, flatRuleSet())
			if err != nil {
				t.Fatalf("aggregate: %v", err)
			}
			if !got.Score.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("unexpected score: got=%s want=%s", got.Score, tc.want)
			}
			if got.Slots[0].UsedSubstitute != tc.usedSub {
				t.Fatalf("unexpected substitute flag: got=%v want=%v", got.Slots[0].UsedSubstitute, tc.usedSub)
			}
		})
	}
}

func TestSquadAggregator_MissingStatistic(t *testing.T) {
	t.Parallel()

	stats := NewStatisticSnapshot([]matchstat.Statistic{playerStat("p-main", "fx-1", 90, 1)})
	entry := competition.Entry{
		ID: "e-1",
		Squad: []competition.Slot{
			slot("p-main", "p-sub", 1),
			slot("p-ghost", "p-ghost-sub", 1),
		},
	}

	got, err := NewSquadAggregator().Aggregate(entry, stats, flatRuleSet())
	if !errors.Is(err, ErrMissingStatistic) {
		t.Fatalf("expected ErrMissingStatistic, got %v", err)
	}
	var missing *MissingStatisticError
	if !errors.As(err, &missing) || len(missing.Slots) != 1 || missing.Slots[0] != 1 {
		t.Fatalf("unexpected missing slots: %+v", missing)
	}
	if !got.Score.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected partial score 6, got %s", got.Score)
	}
	if !got.Slots[1].Missing {
		t.Fatalf("expected slot 1 to be marked missing")
	}
}

func TestSquadAggregator_AggregateAllKeepsOrderAndIsRepeatable(t *testing.T) {
	t.Parallel()

	stats := NewStatisticSnapshot([]matchstat.Statistic{
		playerStat("p-1", "fx-1", 90, 0),
		playerStat("p-2", "fx-1", 90, 1),
		playerStat("p-3", "fx-1", 90, 3),
	})
	entries := []competition.Entry{
		{ID: "e-1", Squad: []competition.Slot{slot("p-1", "p-x", 1)}},
		{ID: "e-2", Squad: []competition.Slot{slot("p-2", "p-x", 1)}},
		{ID: "e-3", Squad: []competition.Slot{slot("p-3", "p-x", 1)}},
		{ID: "e-4", Squad: []competition.Slot{slot("p-y", "p-z", 1)}},
	}

	aggregator := NewSquadAggregator()
	first, firstErrs := aggregator.AggregateAll(entries, stats, flatRuleSet())
	second, _ := aggregator.AggregateAll(entries, stats, flatRuleSet())

	want := []string{"1", "6", "16", "0"}
	for idx := range entries {
		if first[idx].EntryID != entries[idx].ID {
			t.Fatalf("order not preserved at %d: %s", idx, first[idx].EntryID)
		}
		if !first[idx].Score.Equal(decimal.RequireFromString(want[idx])) {
			t.Fatalf("entry %s: got=%s want=%s", entries[idx].ID, first[idx].Score, want[idx])
		}
		if !first[idx].Score.Equal(second[idx].Score) {
			t.Fatalf("entry %s scored differently on repeat", entries[idx].ID)
		}
	}
	for idx, err := range firstErrs[:3] {
		if err != nil {
			t.Fatalf("entry %d: unexpected error %v", idx, err)
		}
	}
	if !errors.Is(firstErrs[3], ErrMissingStatistic) {
		t.Fatalf("expected missing statistic for e-4, got %v", firstErrs[3])
	}
}
