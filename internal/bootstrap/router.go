package bootstrap

import (
	"log"
	"net/http"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/metrics"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/middleware"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	tokenService *services.TokenService,
	recorder core.Recorder,
	rateLimitRedisClient *redis.Client,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.IPMiddleware())

	// Setup session middleware (OAuth state for the redirect flow)
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters := setupRateLimiting(cfg, rateLimitRedisClient)

	// Setup all routes
	setupAllRoutes(r, h, tokenService, recorder, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   !cfg.Debug,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("gigflow_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsAuthToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsAuthToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	tokenService *services.TokenService,
	recorder core.Recorder,
	rateLimiters rateLimitMiddlewares,
) {
	// Public routes
	r.POST("/login", rateLimiters.login, h.auth.Login)
	r.POST("/register", rateLimiters.login, h.auth.Register)

	// The provider redirects back here without a bearer token; the
	// cookie session carries the flow state and caller identity.
	r.GET("/rideshare/:provider/callback", h.rideshare.Callback)

	// Protected routes (bearer token)
	protected := r.Group("", middleware.RequireAuth(tokenService, recorder))
	{
		accounts := protected.Group("/accounts")
		accounts.POST("", h.accounts.Create)
		accounts.GET("", h.accounts.List)
		accounts.GET("/:id", h.accounts.Get)
		accounts.PUT("/:id", h.accounts.Update)
		accounts.DELETE("/:id", h.accounts.Delete)

		link := protected.Group("/rideshare/:provider")
		link.GET("/connect", rateLimiters.connect, h.rideshare.ConnectRedirect)
		link.POST("/connect", rateLimiters.connect, h.rideshare.ConnectDirect)
		link.POST("/:id/disconnect", h.rideshare.Disconnect)
		link.GET("/:id/status", h.rideshare.Status)

		admin := protected.Group("/admin", middleware.RequireAdmin())
		admin.GET("/accounts", h.accounts.ListAll)
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.Debug]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.Debug])
}

var ginModeMap = map[bool]string{
	true:  gin.DebugMode,
	false: gin.ReleaseMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Debug (development)",
	false: "Release (production)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("GigFlow server starting on %s", cfg.ServerAddr)
	log.Printf("Base URL: %s", cfg.BaseURL)
}
