package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	basecache "github.com/riskibarqy/fantasy-contest/internal/platform/cache"
)

type cachedRuleSet struct {
	value  scoring.RuleSet
	exists bool
}

// RulesRepository caches rule sets per sport. Misses are cached as well.
type RulesRepository struct {
	next  scoring.RuleRepository
	cache *basecache.Store[cachedRuleSet]
}

func NewRulesRepository(next scoring.RuleRepository, ttl time.Duration) *RulesRepository {
	return &RulesRepository{next: next, cache: basecache.NewStore[cachedRuleSet](ttl)}
}

func (r *RulesRepository) GetRuleSet(ctx context.Context, sport string) (scoring.RuleSet, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, "rules:sport:"+sport, func(ctx context.Context) (cachedRuleSet, error) {
		item, exists, err := r.next.GetRuleSet(ctx, sport)
		if err != nil {
			return cachedRuleSet{}, err
		}
		return cachedRuleSet{value: item, exists: exists}, nil
	})
	if err != nil {
		return scoring.RuleSet{}, false, err
	}
	return cached.value, cached.exists, nil
}

// Invalidate drops the cached rule set of sport.
func (r *RulesRepository) Invalidate(ctx context.Context, sport string) {
	r.cache.Delete(ctx, "rules:sport:"+sport)
}
