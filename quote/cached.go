package quote

import (
	"context"
	"time"

	"github.com/etnz/rebalance"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Cached wraps a Provider: prices are kept in memory for a while and calls
// to the wrapped provider are rate limited. It is safe for concurrent use.
type Cached struct {
	provider Provider
	cache    *cache.Cache
	limiter  *rate.Limiter
}

// NewCached caches prices for ttl and lets at most one call to p every
// interval, with bursts of burst calls.
func NewCached(p Provider, ttl, interval time.Duration, burst int) *Cached {
	return &Cached{
		provider: p,
		cache:    cache.New(ttl, 2*ttl),
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (c *Cached) Price(ctx context.Context, symbol string) (rebalance.Money, error) {
	if v, ok := c.cache.Get(symbol); ok {
		return v.(rebalance.Money), nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return rebalance.Money{}, err
	}
	m, err := c.provider.Price(ctx, symbol)
	if err != nil {
		return rebalance.Money{}, err
	}
	c.cache.Set(symbol, m, cache.DefaultExpiration)
	return m, nil
}
