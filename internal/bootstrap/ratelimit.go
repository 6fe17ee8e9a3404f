package bootstrap

import (
	"log"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login   gin.HandlerFunc
	connect gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// Accepts an optional shared go-redis client.
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	noOpMiddleware := func(c *gin.Context) { c.Next() }
	disabledLimiters := rateLimitMiddlewares{
		login:   noOpMiddleware,
		connect: noOpMiddleware,
	}

	if !cfg.RateLimitEnabled {
		return disabledLimiters
	}

	log.Printf("Rate limiting enabled (store: %s, rate: %s)", cfg.RateLimitStore, cfg.RateLimitRate)

	createLimiter := func(rate, endpoint string) gin.HandlerFunc {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:            rate,
			StoreType:       middleware.RateLimitStoreType(cfg.RateLimitStore),
			RedisClient:     redisClient, // nil for memory store
			CleanupInterval: 5 * time.Minute,
		})
		if err != nil {
			log.Fatalf("Failed to create rate limiter for %s: %v", endpoint, err)
		}
		return limiter
	}

	return rateLimitMiddlewares{
		login:   createLimiter(cfg.RateLimitRate, "/login"),
		connect: createLimiter(cfg.RateLimitRate, "/rideshare connect"),
	}
}
