package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/metrics"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
)

// clientSideCacheTTL bounds how long rueidisaside keeps entries in the
// local client-side cache before revalidating against Redis.
const clientSideCacheTTL = 30 * time.Second

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMetricsCache initializes the cache backing the account
// count gauges. Returns nils when the gauge update job is disabled.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (cache.CacheWithFetch[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	c, closer, err := newCache[int64](ctx, cfg, "gigflow:metrics:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize metrics cache: %w", err)
	}
	log.Printf("Metrics cache: %s", cfg.CacheDriver)
	return c, closer, nil
}

// initializeAccountCache initializes the cache for link-status reads.
func initializeAccountCache(
	ctx context.Context,
	cfg *config.Config,
) (cache.CacheWithFetch[models.Account], func() error, error) {
	c, closer, err := newCache[models.Account](ctx, cfg, "gigflow:accounts:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize account cache: %w", err)
	}
	log.Printf("Account cache: %s", cfg.CacheDriver)
	return c, closer, nil
}

// newCache builds a cache instance for the configured driver.
func newCache[T any](
	ctx context.Context,
	cfg *config.Config,
	keyPrefix string,
) (cache.CacheWithFetch[T], func() error, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch cfg.CacheDriver {
	case config.CacheDriverRedisClient:
		c, err := cache.NewRueidisAsideCache[T](
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			keyPrefix,
			clientSideCacheTTL,
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case config.CacheDriverRedis:
		c, err := cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			keyPrefix,
		)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	default: // memory
		c := cache.NewMemoryCache[T]()
		return c, c.Close, nil
	}
}
