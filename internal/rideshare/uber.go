package rideshare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/retry"

	"golang.org/x/oauth2"
)

// Uber API defaults. All endpoints are overridable via configuration.
const (
	UberAuthURL    = "https://auth.uber.com/oauth/v2/authorize"
	UberTokenURL   = "https://auth.uber.com/oauth/v2/token"
	UberProfileURL = "https://api.uber.com/v1.2/me"
	UberRevokeURL  = "https://auth.uber.com/oauth/v2/revoke"
)

// UberAdapter links Uber rider accounts. Uber authenticates the token
// exchange with client credentials in the form body, and revokes via a
// form post carrying the shared secret.
type UberAdapter struct {
	cfg         ProviderConfig
	oauth       *oauth2.Config
	client      *http.Client
	retryClient *retry.Client
}

// NewUberAdapter creates a new Uber provider adapter
func NewUberAdapter(
	cfg ProviderConfig,
	client *http.Client,
	retryClient *retry.Client,
) *UberAdapter {
	if cfg.AuthURL == "" {
		cfg.AuthURL = UberAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = UberTokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = UberProfileURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = UberRevokeURL
	}

	return &UberAdapter{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		client:      client,
		retryClient: retryClient,
	}
}

// Type returns the account type this adapter serves
func (a *UberAdapter) Type() models.AccountType {
	return models.AccountTypeUber
}

// DisplayName returns the human-readable provider name
func (a *UberAdapter) DisplayName() string {
	return "Uber"
}

// AuthCodeURL returns the Uber authorization URL
func (a *UberAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token.
// Uber takes the client credentials in the form body.
func (a *UberAdapter) ExchangeCode(
	ctx context.Context,
	code string,
) (string, *TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.cfg.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf(
			"%w: Uber token endpoint returned %s - %s",
			ErrUpstreamAuth,
			resp.Status,
			bodyPreview(resp.Body),
		)
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if token.AccessToken == "" {
		return "", nil, fmt.Errorf("%w: missing access_token", ErrInvalidResponse)
	}

	return token.AccessToken, &token, nil
}

// uberProfile is the subset of GET /v1.2/me this service consumes
type uberProfile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RiderID   string `json:"rider_id"`
}

// FetchProfile retrieves the rider profile. The email is the
// identifying field used for the account description.
func (a *UberAdapter) FetchProfile(
	ctx context.Context,
	accessToken string,
) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.retryClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"%w: Uber profile endpoint returned %s - %s",
			ErrUpstreamAuth,
			resp.Status,
			bodyPreview(resp.Body),
		)
	}

	var profile uberProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrInvalidResponse)
	}

	return &Profile{
		Identifier: profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	}, nil
}

// Revoke invalidates the token upstream. Uber takes the client
// credentials and the token in the form body. Provider-side rejections
// are absorbed; only transport failures propagate.
func (a *UberAdapter) Revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	form.Set("token", token)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.cfg.RevokeURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	// Revocation is best effort: a provider-side rejection means the
	// token is likely already dead upstream.
	return nil
}

// bodyPreview reads at most 200 bytes of a response body for error
// messages, so upstream HTML error pages don't flood the logs.
func bodyPreview(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 200))
	return string(b)
}
