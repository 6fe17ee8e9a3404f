package bootstrap

import (
	"fmt"
	"log"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := validateProviderConfig(cfg); err != nil {
		log.Fatalf("Invalid provider configuration: %v", err)
	}
}

// validateProviderConfig checks that every enabled rideshare provider
// carries the credentials the OAuth flow needs.
func validateProviderConfig(cfg *config.Config) error {
	if cfg.UberEnabled {
		if cfg.UberClientID == "" || cfg.UberClientSecret == "" {
			return fmt.Errorf("UBER_OAUTH_ENABLED requires UBER_CLIENT_ID and UBER_CLIENT_SECRET")
		}
		if cfg.UberRedirectURL == "" {
			return fmt.Errorf("UBER_OAUTH_ENABLED requires UBER_REDIRECT_URL")
		}
	}
	if cfg.LyftEnabled {
		if cfg.LyftClientID == "" || cfg.LyftClientSecret == "" {
			return fmt.Errorf("LYFT_OAUTH_ENABLED requires LYFT_CLIENT_ID and LYFT_CLIENT_SECRET")
		}
		if cfg.LyftRedirectURL == "" {
			return fmt.Errorf("LYFT_OAUTH_ENABLED requires LYFT_REDIRECT_URL")
		}
	}
	return nil
}
