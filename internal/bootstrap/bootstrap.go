package bootstrap

import (
	"context"
	"net/http"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	MetricsCache         cache.CacheWithFetch[int64]
	MetricsCacheCloser   func() error
	AccountCache         cache.CacheWithFetch[models.Account]
	AccountCacheCloser   func() error
	RateLimitRedisClient *redis.Client

	// Provider adapters
	Providers rideshare.Registry

	// Services
	UserService    *services.UserService
	TokenService   *services.TokenService
	AccountService *services.AccountService
	LinkService    *services.LinkService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	validateAllConfiguration(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Account cache (link status reads)
	app.AccountCache, app.AccountCacheCloser, err = initializeAccountCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up provider adapters and services
func (app *Application) initializeBusinessLayer() {
	app.Providers = initializeProviders(app.Config)
	logProviderStatus(app.Providers)

	app.UserService,
		app.TokenService,
		app.AccountService,
		app.LinkService = initializeServices(
		app.Config,
		app.DB,
		app.Providers,
		app.AccountCache,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.UserService,
		app.TokenService,
		app.AccountService,
		app.LinkService,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.TokenService,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}
