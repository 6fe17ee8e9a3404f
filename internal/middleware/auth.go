package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/authz"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"

	"github.com/gin-gonic/gin"
)

const callerContextKey = "caller"

// RequireAuth validates the bearer token and stores the resolved caller
// in the request context. The caller comes entirely from the verified
// token; nothing in the request body or path can impersonate another
// user.
func RequireAuth(tokens *services.TokenService, recorder core.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Header("WWW-Authenticate", `Bearer realm="API"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Bearer token required",
			})
			return
		}

		caller, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			result := "invalid"
			message := "Invalid token"
			if errors.Is(err, services.ErrExpiredToken) {
				result = "expired"
				message = "Token expired"
			}
			recorder.RecordTokenValidation(result)
			c.Header("WWW-Authenticate", `Bearer realm="API"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
			})
			return
		}

		recorder.RecordTokenValidation("valid")
		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// RequireAdmin rejects callers without the elevated role. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok || !caller.IsElevated() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// GetCaller retrieves the authenticated caller from the context.
func GetCaller(c *gin.Context) (authz.Caller, bool) {
	v, exists := c.Get(callerContextKey)
	if !exists {
		return authz.Caller{}, false
	}
	caller, ok := v.(authz.Caller)
	return caller, ok
}
