package scoring

import (
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/shopspring/decimal"
)

const SportFootball = "football"

// Rule maps statistic types to the points earned per unit.
type Rule struct {
	Points map[matchstat.StatType]decimal.Decimal
}

// RuleSet holds the rules of one sport, optionally overridden per position.
type RuleSet struct {
	Sport      string
	Default    Rule
	ByPosition map[matchstat.Position]Rule
}

func (rs RuleSet) RuleFor(position matchstat.Position) Rule {
	if rule, ok := rs.ByPosition[position]; ok {
		return rule
	}
	return rs.Default
}

func points(values map[matchstat.StatType]string) Rule {
	out := make(map[matchstat.StatType]decimal.Decimal, len(values))
	for statType, raw := range values {
		out[statType] = decimal.RequireFromString(raw)
	}
	return Rule{Points: out}
}

// DefaultFootballRuleSet is the built-in football scoring table.
func DefaultFootballRuleSet() RuleSet {
	shared := map[matchstat.StatType]string{
		matchstat.StatAppearance:      "1",
		matchstat.StatSixtyMinutes:    "1",
		matchstat.StatAssists:         "3",
		matchstat.StatPenaltiesMissed: "-2",
		matchstat.StatYellowCards:     "-1",
		matchstat.StatRedCards:        "-3",
		matchstat.StatOwnGoals:        "-2",
	}
	with := func(extra map[matchstat.StatType]string) Rule {
		merged := make(map[matchstat.StatType]string, len(shared)+len(extra))
		for k, v := range shared {
			merged[k] = v
		}
		for k, v := range extra {
			merged[k] = v
		}
		return points(merged)
	}

	return RuleSet{
		Sport: SportFootball,
		Default: with(map[matchstat.StatType]string{
			matchstat.StatGoals: "6",
		}),
		ByPosition: map[matchstat.Position]Rule{
			matchstat.PositionGoalkeeper: with(map[matchstat.StatType]string{
				matchstat.StatGoals:          "6",
				matchstat.StatCleanSheet:     "4",
				matchstat.StatGoalsConceded:  "-0.5",
				matchstat.StatSaves:          "0.5",
				matchstat.StatPenaltiesSaved: "5",
			}),
			matchstat.PositionDefender: with(map[matchstat.StatType]string{
				matchstat.StatGoals:         "6",
				matchstat.StatCleanSheet:    "4",
				matchstat.StatGoalsConceded: "-0.5",
			}),
			matchstat.PositionMidfielder: with(map[matchstat.StatType]string{
				matchstat.StatGoals:      "5",
				matchstat.StatCleanSheet: "1",
			}),
			matchstat.PositionForward: with(map[matchstat.StatType]string{
				matchstat.StatGoals: "4",
			}),
		},
	}
}
