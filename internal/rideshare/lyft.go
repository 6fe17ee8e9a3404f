package rideshare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/retry"

	"golang.org/x/oauth2"
)

// Lyft API defaults. All endpoints are overridable via configuration.
const (
	LyftAuthURL    = "https://api.lyft.com/oauth/authorize"
	LyftTokenURL   = "https://api.lyft.com/oauth/token"
	LyftProfileURL = "https://api.lyft.com/v1/profile"
	LyftRevokeURL  = "https://api.lyft.com/oauth/revoke"
)

// LyftAdapter links Lyft rider accounts. Unlike Uber, Lyft requires
// HTTP basic auth with the client credentials on the token exchange,
// and revokes by presenting the token itself as the bearer credential
// with no body.
type LyftAdapter struct {
	cfg         ProviderConfig
	oauth       *oauth2.Config
	client      *http.Client
	retryClient *retry.Client
}

// NewLyftAdapter creates a new Lyft provider adapter
func NewLyftAdapter(
	cfg ProviderConfig,
	client *http.Client,
	retryClient *retry.Client,
) *LyftAdapter {
	if cfg.AuthURL == "" {
		cfg.AuthURL = LyftAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = LyftTokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = LyftProfileURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = LyftRevokeURL
	}

	return &LyftAdapter{
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
func (a *LyftAdapter) Type() models.AccountType {
	return models.AccountTypeLyft
}

// DisplayName returns the human-readable provider name
func (a *LyftAdapter) DisplayName() string {
	return "Lyft"
}

// AuthCodeURL returns the Lyft authorization URL
func (a *LyftAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for an access token.
// Lyft requires basic auth with the client credentials in addition to
// the form fields.
func (a *LyftAdapter) ExchangeCode(
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
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf(
			"%w: Lyft token endpoint returned %s - %s",
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

// lyftProfile is the subset of GET /v1/profile this service consumes
type lyftProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FetchProfile retrieves the rider profile. Lyft exposes no email; the
// opaque rider id is the identifying field used for the description.
func (a *LyftAdapter) FetchProfile(
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
			"%w: Lyft profile endpoint returned %s - %s",
			ErrUpstreamAuth,
			resp.Status,
			bodyPreview(resp.Body),
		)
	}

	var profile lyftProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", ErrInvalidResponse)
	}

	return &Profile{
		Identifier: profile.ID,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	}, nil
}

// Revoke invalidates the token upstream. Lyft self-revokes: the token
// being revoked is the bearer credential and the request carries no
// body. Provider-side rejections are absorbed; only transport failures
// propagate.
func (a *LyftAdapter) Revoke(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.RevokeURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	return nil
}
