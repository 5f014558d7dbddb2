package memory

import (
	"context"

	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
)

// RulesRepository serves a fixed set of rule sets, keyed by sport.
type RulesRepository struct {
	items map[string]scoring.RuleSet
}

func NewRulesRepository(ruleSets ...scoring.RuleSet) *RulesRepository {
	if len(ruleSets) == 0 {
		ruleSets = []scoring.RuleSet{scoring.DefaultFootballRuleSet()}
	}
	items := make(map[string]scoring.RuleSet, len(ruleSets))
	for _, rs := range ruleSets {
		items[rs.Sport] = rs
	}
	return &RulesRepository{items: items}
}

func (r *RulesRepository) GetRuleSet(_ context.Context, sport string) (scoring.RuleSet, bool, error) {
	rs, ok := r.items[sport]
	return rs, ok, nil
}
