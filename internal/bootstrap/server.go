package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/metrics"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Config, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCacheCloseJob(m, "account cache", app.AccountCacheCloser)
	addCacheCloseJob(m, "metrics cache", app.MetricsCacheCloser)
	addDatabaseCloseJob(m, app.Config, app.DB)

	<-m.Done()
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, cfg *config.Config, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addCacheCloseJob adds cache cleanup on shutdown
func addCacheCloseJob(m *graceful.Manager, name string, closer func() error) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			log.Printf("Error closing %s: %v", name, err)
		} else {
			log.Printf("Closed %s", name)
		}
		return nil
	})
}

// addDatabaseCloseJob adds database shutdown handler
func addDatabaseCloseJob(m *graceful.Manager, cfg *config.Config, db *store.Store) {
	m.AddShutdownJob(func() error {
		sqlDB, err := db.DB().DB()
		if err != nil {
			return err
		}

		done := make(chan error, 1)
		go func() { done <- sqlDB.Close() }()
		select {
		case err := <-done:
			if err != nil {
				log.Printf("Error closing database: %v", err)
				return err
			}
			log.Println("Database connection closed")
			return nil
		case <-time.After(cfg.DBCloseTimeout):
			log.Printf("Database close timed out after %s", cfg.DBCloseTimeout)
			return nil
		}
	})
}

// gaugeAccountTypes is the closed set of account types reported by the
// per-type gauges.
var gaugeAccountTypes = []models.AccountType{
	models.AccountTypeSavings,
	models.AccountTypeChecking,
	models.AccountTypeCredit,
	models.AccountTypeInvestment,
	models.AccountTypeWallet,
	models.AccountTypeUber,
	models.AccountTypeLyft,
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	metricsCache cache.CacheWithFetch[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		// Cache TTL matches the update interval so scrapes between two
		// updates never hit the database.
		wrapper := metrics.NewCacheWrapper(db, metricsCache)

		updateGaugeMetrics(ctx, wrapper, recorder, cfg.MetricsGaugeUpdateInterval)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetrics(ctx, wrapper, recorder, cfg.MetricsGaugeUpdateInterval)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// updateGaugeMetrics refreshes the per-type account gauges from the
// cache-backed counts.
func updateGaugeMetrics(
	ctx context.Context,
	wrapper *metrics.CacheWrapper,
	recorder core.Recorder,
	cacheTTL time.Duration,
) {
	for _, accountType := range gaugeAccountTypes {
		total, err := wrapper.GetAccountsCount(ctx, accountType, cacheTTL)
		if err != nil {
			recorder.RecordDatabaseQueryError("count_accounts")
			gaugeErrorLogger.logIfNeeded("count_accounts_"+string(accountType), err)
			continue
		}

		connected, err := wrapper.GetConnectedCount(ctx, accountType, cacheTTL)
		if err != nil {
			recorder.RecordDatabaseQueryError("count_connected_accounts")
			gaugeErrorLogger.logIfNeeded("count_connected_"+string(accountType), err)
			continue
		}

		recorder.SetAccountsCount(string(accountType), int(total), int(connected))
	}
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) {
	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]

	if !exists || now.Sub(lastTime) >= e.rateLimitWindow {
		log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
			operation, err, e.rateLimitWindow)
		e.lastErrorTimes[operation] = now
	}
}

var gaugeErrorLogger = newErrorLogger()
