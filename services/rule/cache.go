package rule

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{Name: "rule_cache_hits_total"})
	cacheMiss = promauto.NewCounter(prometheus.CounterOpts{Name: "rule_cache_miss_total"})
)

type RuleSetKey struct {
	Trigger RuleTrigger
}

type CompiledRuleSet struct {
	Rules     []*CompiledRule
	UpdatedAt time.Time
}

// thread-safe + singleflight
type RuleCache struct {
	mu    sync.RWMutex
	items map[RuleSetKey]*CompiledRuleSet
	ttl   time.Duration
	group singleflight.Group
}

func NewRuleCache(ttl time.Duration) *RuleCache {
	return &RuleCache{
		items: make(map[RuleSetKey]*CompiledRuleSet),
		ttl:   ttl,
	}
}

func (c *RuleCache) Get(key RuleSetKey) (*CompiledRuleSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	if !ok || (c.ttl > 0 && time.Since(v.UpdatedAt) > c.ttl) {
		return nil, false
	}
	return v, true
}

func (c *RuleCache) Set(key RuleSetKey, v *CompiledRuleSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = v
}

func (c *RuleCache) Invalidate(key RuleSetKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// GetOrLoad returns the cached compiled set for the trigger, loading it at
// most once per key across concurrent callers.
func (c *RuleCache) GetOrLoad(key RuleSetKey, load func() (*CompiledRuleSet, error)) (*CompiledRuleSet, error) {
	if set, ok := c.Get(key); ok {
		cacheHits.Inc()
		return set, nil
	}
	cacheMiss.Inc()

	v, err, _ := c.group.Do(string(key.Trigger), func() (interface{}, error) {
		if set, ok := c.Get(key); ok {
			return set, nil
		}
		set, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledRuleSet), nil
}
