package usecase

import (
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"
)

// StatisticSource resolves already-fetched statistics without blocking.
type StatisticSource interface {
	Lookup(playerID, fixtureID string) (matchstat.Statistic, bool)
}

// StatisticSnapshot is an immutable in-memory StatisticSource.
type StatisticSnapshot map[matchstat.Key]matchstat.Statistic

func NewStatisticSnapshot(stats []matchstat.Statistic) StatisticSnapshot {
	out := make(StatisticSnapshot, len(stats))
	for _, stat := range stats {
		out[stat.Key()] = stat
	}
	return out
}

func (s StatisticSnapshot) Lookup(playerID, fixtureID string) (matchstat.Statistic, bool) {
	stat, ok := s[matchstat.Key{PlayerID: playerID, FixtureID: fixtureID}]
	return stat, ok
}

type SlotScore struct {
	Index          int
	PlayerID       string
	UsedSubstitute bool
	Missing        bool
	Points         decimal.Decimal
}

type SquadScore struct {
	EntryID string
	Score   decimal.Decimal
	Slots   []SlotScore
}

// SquadAggregator turns an entry's squad into a single score.
type SquadAggregator struct{}

func NewSquadAggregator() *SquadAggregator {
	return &SquadAggregator{}
}

// Aggregate sums star-weighted points across the squad. When a slot has no
// statistic for either pick, the partial score is returned together with a
// *MissingStatisticError.
func (a *SquadAggregator) Aggregate(entry competition.Entry, stats StatisticSource, rules scoring.RuleSet) (SquadScore, error) {
	out := SquadScore{
		EntryID: entry.ID,
		Score:   decimal.Zero,
		Slots:   make([]SlotScore, 0, len(entry.Squad)),
	}

	var missing []int
	for idx, slot := range entry.Squad {
		stat, usedSub, ok := resolveSlot(slot, stats)
		if !ok {
			missing = append(missing, idx)
			out.Slots = append(out.Slots, SlotScore{Index: idx, PlayerID: slot.Main.PlayerID, Missing: true, Points: decimal.Zero})
			continue
		}

		points := scoring.ComputeWithRuleSet(stat, rules).Mul(starMultiplier(slot.StarRating))
		out.Score = out.Score.Add(points)
		out.Slots = append(out.Slots, SlotScore{
			Index:          idx,
			PlayerID:       stat.PlayerID,
			UsedSubstitute: usedSub,
			Points:         points,
		})
	}

	if len(missing) > 0 {
		return out, &MissingStatisticError{EntryID: entry.ID, Slots: missing}
	}
	return out, nil
}

type aggregateOutcome struct {
	score SquadScore
	err   error
}

// AggregateAll scores every entry concurrently; results keep input order.
// Per-entry errors are returned alongside, never aborting the batch.
func (a *SquadAggregator) AggregateAll(entries []competition.Entry, stats StatisticSource, rules scoring.RuleSet) ([]SquadScore, []error) {
	outcomes := iter.Map(entries, func(entry *competition.Entry) aggregateOutcome {
		score, err := a.Aggregate(*entry, stats, rules)
		return aggregateOutcome{score: score, err: err}
	})

	scores := make([]SquadScore, len(outcomes))
	errs := make([]error, len(outcomes))
	for i, outcome := range outcomes {
		scores[i] = outcome.score
		errs[i] = outcome.err
	}
	return scores, errs
}

// resolveSlot prefers a main pick who played, then a substitute who played,
// then whichever statistic exists.
func resolveSlot(slot competition.Slot, stats StatisticSource) (matchstat.Statistic, bool, bool) {
	mainStat, mainOK := lookupRef(slot.Main, stats)
	subStat, subOK := lookupRef(slot.Substitute, stats)

	switch {
	case mainOK && mainStat.Played():
		return mainStat, false, true
	case subOK && subStat.Played():
		return subStat, true, true
	case mainOK:
		return mainStat, false, true
	case subOK:
		return subStat, true, true
	default:
		return matchstat.Statistic{}, false, false
	}
}

func lookupRef(ref competition.PlayerRef, stats StatisticSource) (matchstat.Statistic, bool) {
	if ref.PlayerID == "" || ref.FixtureID == "" {
		return matchstat.Statistic{}, false
	}
	return stats.Lookup(ref.PlayerID, ref.FixtureID)
}

// starMultiplier treats an unset rating as 1.
func starMultiplier(rating decimal.Decimal) decimal.Decimal {
	if rating.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rating
}
