package bootstrap

import (
	"crypto/tls"
	"log"
	"net/http"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/retry"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"

	"github.com/appleboy/go-httpclient"
)

// initializeProviders builds the rideshare adapter registry from the
// enabled provider blocks.
func initializeProviders(cfg *config.Config) rideshare.Registry {
	registry := make(rideshare.Registry)
	client := createProviderHTTPClient(cfg)
	retryClient := createProviderRetryClient(cfg, client)

	switch {
	case !cfg.UberEnabled:
		// Skip Uber
	case cfg.UberClientID == "" || cfg.UberClientSecret == "":
		log.Printf("Warning: Uber OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		registry[models.AccountTypeUber] = rideshare.NewUberAdapter(rideshare.ProviderConfig{
			ClientID:     cfg.UberClientID,
			ClientSecret: cfg.UberClientSecret,
			RedirectURL:  cfg.UberRedirectURL,
			Scopes:       cfg.UberScopes,
			AuthURL:      cfg.UberAuthURL,
			TokenURL:     cfg.UberTokenURL,
			ProfileURL:   cfg.UberProfileURL,
			RevokeURL:    cfg.UberRevokeURL,
		}, client, retryClient)
		log.Printf("Uber provider configured: redirect=%s", cfg.UberRedirectURL)
	}

	switch {
	case !cfg.LyftEnabled:
		// Skip Lyft
	case cfg.LyftClientID == "" || cfg.LyftClientSecret == "":
		log.Printf("Warning: Lyft OAuth enabled but CLIENT_ID or CLIENT_SECRET missing")
	default:
		registry[models.AccountTypeLyft] = rideshare.NewLyftAdapter(rideshare.ProviderConfig{
			ClientID:     cfg.LyftClientID,
			ClientSecret: cfg.LyftClientSecret,
			RedirectURL:  cfg.LyftRedirectURL,
			Scopes:       cfg.LyftScopes,
			AuthURL:      cfg.LyftAuthURL,
			TokenURL:     cfg.LyftTokenURL,
			ProfileURL:   cfg.LyftProfileURL,
			RevokeURL:    cfg.LyftRevokeURL,
		}, client, retryClient)
		log.Printf("Lyft provider configured: redirect=%s", cfg.LyftRedirectURL)
	}

	return registry
}

// createProviderHTTPClient creates the HTTP client used for direct
// provider calls (code exchange, revoke).
func createProviderHTTPClient(cfg *config.Config) *http.Client {
	if cfg.ProviderInsecureSkipVerify {
		log.Printf("WARNING: provider TLS verification is disabled (PROVIDER_INSECURE_SKIP_VERIFY=true)")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.ProviderInsecureSkipVerify, //nolint:gosec // opt-in for dev setups
	}

	client, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.ProviderTimeout),
		httpclient.WithTransport(transport),
	)
	if err != nil {
		log.Fatalf("Failed to create provider HTTP client: %v", err)
	}

	return client
}

// createProviderRetryClient wraps the provider HTTP client with retry
// for idempotent calls (profile fetches only).
func createProviderRetryClient(cfg *config.Config, client *http.Client) *retry.Client {
	return retry.NewClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(cfg.ProviderMaxRetries),
		retry.WithInitialRetryDelay(cfg.ProviderRetryDelay),
		retry.WithMaxRetryDelay(cfg.ProviderMaxRetryDelay),
	)
}

// logProviderStatus logs enabled rideshare providers
func logProviderStatus(registry rideshare.Registry) {
	if len(registry) > 0 {
		log.Printf("Rideshare providers enabled: %v", registry.Names())
	} else {
		log.Printf("No rideshare providers enabled; link endpoints will reject requests")
	}
}
