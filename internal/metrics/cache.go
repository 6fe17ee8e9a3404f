package metrics

import (
	"context"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
)

// CacheWrapper provides a read-through cache for account count queries.
// The counts feed the per-type account gauges; caching keeps the gauge
// update job from hammering the database on every scrape.
// Uses the cache's GetWithFetch method for cache-aside pattern support.
type CacheWrapper struct {
	store core.MetricsStore
	cache cache.CacheWithFetch[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache cache.CacheWithFetch[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetAccountsCount retrieves the number of accounts of the given type.
func (m *CacheWrapper) GetAccountsCount(
	ctx context.Context,
	accountType models.AccountType,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(
		ctx,
		"accounts:"+string(accountType),
		ttl,
		func() (int64, error) {
			return m.store.CountAccountsByType(accountType)
		},
	)
}

// GetConnectedCount retrieves the number of accounts of the given type
// holding a live provider token.
func (m *CacheWrapper) GetConnectedCount(
	ctx context.Context,
	accountType models.AccountType,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(
		ctx,
		"accounts:connected:"+string(accountType),
		ttl,
		func() (int64, error) {
			return m.store.CountConnectedByType(accountType)
		},
	)
}

// getCountWithCache retrieves a count using the cache-aside pattern.
func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func() (int64, error),
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return fetchFunc()
		},
	)
}
