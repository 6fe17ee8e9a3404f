package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/authz"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError writes the uniform JSON error envelope.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps service and provider errors to HTTP
// responses. Wrong-provider requests get 403 with a distinct code so a
// caller probing another user's account cannot tell the two apart by
// status alone while legitimate clients can.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Account not found")
	case errors.Is(err, authz.ErrForbidden):
		respondError(c, http.StatusForbidden, "forbidden", "Not enough permissions")
	case errors.Is(err, services.ErrWrongProvider):
		respondError(c, http.StatusForbidden, "wrong_provider",
			"Account type does not match the requested provider")
	case errors.Is(err, services.ErrUnsupportedProvider):
		respondError(c, http.StatusBadRequest, "unsupported_provider",
			"Unsupported rideshare provider")
	case errors.Is(err, services.ErrInvalidAccountType):
		respondError(c, http.StatusBadRequest, "invalid_account_type",
			"Invalid account type")
	case errors.Is(err, rideshare.ErrUpstreamAuth):
		respondError(c, http.StatusBadGateway, "upstream_auth_failure",
			"Rideshare provider rejected the request")
	case errors.Is(err, rideshare.ErrUpstreamUnreachable):
		respondError(c, http.StatusGatewayTimeout, "upstream_unreachable",
			"Rideshare provider is unreachable")
	case errors.Is(err, rideshare.ErrInvalidResponse):
		respondError(c, http.StatusBadGateway, "invalid_upstream_response",
			"Rideshare provider returned an unusable response")
	default:
		log.Printf("[HTTP] Unhandled error: %v", err)
		respondError(c, http.StatusInternalServerError, "internal_error",
			"Internal server error")
	}
}
