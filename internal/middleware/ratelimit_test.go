package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(t *testing.T, limiter gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestNewRateLimiter_MemoryStore(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		Rate:            "5-M",
		StoreType:       RateLimitStoreMemory,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	router := newRateLimitedRouter(t, limiter)

	// First 5 requests from the same IP pass
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	// The 6th is rejected
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestNewRateLimiter_PerClientIsolation(t *testing.T) {
	limiter, err := NewMemoryRateLimiter("2-M")
	require.NoError(t, err)

	router := newRateLimitedRouter(t, limiter)

	// Exhaust the first client's budget
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
	}

	// A different client still gets through
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRateLimiter_RateHeaders(t *testing.T) {
	limiter, err := NewMemoryRateLimiter("10-M")
	require.NoError(t, err)

	router := newRateLimitedRouter(t, limiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestNewRateLimiter_InvalidRateFormat(t *testing.T) {
	tests := []string{"", "100", "M-100", "abc-M"}

	for _, rate := range tests {
		t.Run("rate "+rate, func(t *testing.T) {
			_, err := NewRateLimiter(RateLimitConfig{
				Rate:      rate,
				StoreType: RateLimitStoreMemory,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid rate limit format")
		})
	}
}

func TestNewRateLimiter_UnknownStoreFallsBackToMemory(t *testing.T) {
	limiter, err := NewRateLimiter(RateLimitConfig{
		Rate:      "5-M",
		StoreType: RateLimitStoreType("bogus"),
	})
	require.NoError(t, err)
	require.NotNil(t, limiter)
}

func TestNewRedisRateLimiter_ConnectionFailure(t *testing.T) {
	// No Redis at this address; construction should fail fast rather
	// than hand back a limiter that errors on every request.
	_, err := NewRedisRateLimiter("10-M", "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}
