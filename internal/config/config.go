package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache driver constants
const (
	CacheDriverMemory      = "memory"
	CacheDriverRedis       = "redis"
	CacheDriverRedisClient = "redis-client" // rueidisaside with client-side caching
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string
	Debug      bool

	// JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Session settings (OAuth state for the browser redirect flow)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Uber OAuth
	UberEnabled      bool
	UberClientID     string
	UberClientSecret string
	UberRedirectURL  string
	UberScopes       []string
	UberAuthURL      string
	UberTokenURL     string
	UberProfileURL   string
	UberRevokeURL    string

	// Lyft OAuth
	LyftEnabled      bool
	LyftClientID     string
	LyftClientSecret string
	LyftRedirectURL  string
	LyftScopes       []string
	LyftAuthURL      string
	LyftTokenURL     string
	LyftProfileURL   string
	LyftRevokeURL    string

	// Provider HTTP Client Settings
	ProviderTimeout            time.Duration // HTTP client timeout for provider requests (default: 15s)
	ProviderInsecureSkipVerify bool          // Skip TLS verification (dev/testing only, default: false)
	ProviderMaxRetries         int           // Max retries for idempotent provider calls (default: 3)
	ProviderRetryDelay         time.Duration
	ProviderMaxRetryDelay      time.Duration

	// Cache settings
	CacheDriver   string // "memory", "redis", or "redis-client"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitEnabled bool
	RateLimitRate    string // ulule/limiter format, e.g. "100-M"
	RateLimitStore   string // "memory" or "redis"

	// Metrics
	MetricsEnabled             bool
	MetricsAuthToken           string // Bearer token guarding /metrics (empty = open)
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration

	// Lifecycle timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	RedisConnTimeout      time.Duration
	RedisCloseTimeout     time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
}

// Validate checks the loaded configuration for values that would only
// fail later at runtime.
func (c *Config) Validate() error {
	switch c.CacheDriver {
	case CacheDriverMemory:
	case CacheDriverRedis, CacheDriverRedisClient:
		if c.RedisAddr == "" {
			return fmt.Errorf("CACHE_DRIVER=%q requires REDIS_ADDR", c.CacheDriver)
		}
	default:
		return fmt.Errorf("invalid CACHE_DRIVER value: %q (use memory, redis, or redis-client)", c.CacheDriver)
	}

	switch c.RateLimitStore {
	case "", "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf(`RATE_LIMIT_STORE="redis" requires REDIS_ADDR`)
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE value: %q (use memory or redis)", c.RateLimitStore)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be a positive duration")
	}

	return nil
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "gigflow.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		Debug:         getEnvBool("DEBUG", false),
		JWTSecret:     getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", time.Hour),
		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 1800),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		// Uber OAuth
		UberEnabled:      getEnvBool("UBER_OAUTH_ENABLED", false),
		UberClientID:     getEnv("UBER_CLIENT_ID", ""),
		UberClientSecret: getEnv("UBER_CLIENT_SECRET", ""),
		UberRedirectURL:  getEnv("UBER_REDIRECT_URL", ""),
		UberScopes:       getEnvSlice("UBER_SCOPES", []string{"profile"}),
		UberAuthURL:      getEnv("UBER_AUTH_URL", ""),
		UberTokenURL:     getEnv("UBER_TOKEN_URL", ""),
		UberProfileURL:   getEnv("UBER_PROFILE_URL", ""),
		UberRevokeURL:    getEnv("UBER_REVOKE_URL", ""),

		// Lyft OAuth
		LyftEnabled:      getEnvBool("LYFT_OAUTH_ENABLED", false),
		LyftClientID:     getEnv("LYFT_CLIENT_ID", ""),
		LyftClientSecret: getEnv("LYFT_CLIENT_SECRET", ""),
		LyftRedirectURL:  getEnv("LYFT_REDIRECT_URL", ""),
		LyftScopes:       getEnvSlice("LYFT_SCOPES", []string{"public", "profile"}),
		LyftAuthURL:      getEnv("LYFT_AUTH_URL", ""),
		LyftTokenURL:     getEnv("LYFT_TOKEN_URL", ""),
		LyftProfileURL:   getEnv("LYFT_PROFILE_URL", ""),
		LyftRevokeURL:    getEnv("LYFT_REVOKE_URL", ""),

		// Provider HTTP Client Settings
		ProviderTimeout:            getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		ProviderInsecureSkipVerify: getEnvBool("PROVIDER_INSECURE_SKIP_VERIFY", false),
		ProviderMaxRetries:         getEnvInt("PROVIDER_MAX_RETRIES", 3),
		ProviderRetryDelay:         getEnvDuration("PROVIDER_RETRY_DELAY", 1*time.Second),
		ProviderMaxRetryDelay:      getEnvDuration("PROVIDER_MAX_RETRY_DELAY", 10*time.Second),

		// Cache settings
		CacheDriver:   getEnv("CACHE_DRIVER", CacheDriverMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Rate limiting
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRate:    getEnv("RATE_LIMIT_RATE", "100-M"),
		RateLimitStore:   getEnv("RATE_LIMIT_STORE", "memory"),

		// Metrics
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", true),
		MetricsAuthToken:           getEnv("METRICS_AUTH_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 30*time.Second),

		// Lifecycle timeouts
		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout:     getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := splitAndTrim(value, ",")
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
