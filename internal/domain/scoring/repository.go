package scoring

import "context"

// RuleRepository serves read-only points configuration.
type RuleRepository interface {
	GetRuleSet(ctx context.Context, sport string) (RuleSet, bool, error)
}
