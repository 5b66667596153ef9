package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/core/ports"
)

// FilterOptionCache memoizes the distinct categorical filter values with
// a TTL. The option discretizer invalidates it after every rebuild so
// clients never see stale option sets for long.
type FilterOptionCache struct {
	schemes ports.SchemeRepository
	ttl     time.Duration

	mu       sync.RWMutex
	cached   *domain.FilterOptions
	loadedAt time.Time
}

func NewFilterOptionCache(schemes ports.SchemeRepository, ttl time.Duration) *FilterOptionCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FilterOptionCache{
		schemes: schemes,
		ttl:     ttl,
	}
}

func (c *FilterOptionCache) Get(ctx context.Context) (*domain.FilterOptions, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.loadedAt) < c.ttl {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	options, err := c.schemes.DistinctFilterValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("load filter options: %w", err)
	}

	c.mu.Lock()
	c.cached = options
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return options, nil
}

func (c *FilterOptionCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
