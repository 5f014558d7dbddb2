package scoring

import (
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/shopspring/decimal"
)

// Compute returns Σ value × rule[type] over the recorded values of stat.
// Types without a rule contribute zero; the total may be negative.
func Compute(stat matchstat.Statistic, rule Rule) decimal.Decimal {
	total := decimal.Zero
	for statType, value := range stat.Values {
		weight, ok := rule.Points[statType]
		if !ok || value == 0 {
			continue
		}
		total = total.Add(weight.Mul(decimal.NewFromInt(value)))
	}
	return total
}

// ComputeWithRuleSet picks the rule for the statistic's position.
func ComputeWithRuleSet(stat matchstat.Statistic, rules RuleSet) decimal.Decimal {
	return Compute(stat, rules.RuleFor(stat.Position))
}
