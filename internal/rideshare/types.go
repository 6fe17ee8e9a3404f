package rideshare

import (
	"context"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
)

// ProviderConfig contains configuration for a rideshare OAuth provider
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	AuthURL    string
	TokenURL   string
	ProfileURL string
	RevokeURL  string
}

// TokenResponse is the raw token payload returned by a provider's
// token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Profile contains the subset of a provider profile this service
// consumes. Identifier is the provider-specific identifying string
// (email for Uber, the opaque rider id for Lyft); it is used only to
// build the human-readable account description, never as a lookup key.
type Profile struct {
	Identifier string
	FirstName  string
	LastName   string
}

// Adapter is implemented once per rideshare provider. The two
// providers are structurally similar but carry distinct auth schemes
// for the exchange and revoke calls; those stay separate code paths
// per adapter rather than one parameterized shape.
type Adapter interface {
	// Type returns the account type this adapter serves.
	Type() models.AccountType

	// DisplayName returns the human-readable provider name.
	DisplayName() string

	// AuthCodeURL returns the provider authorization URL for the
	// browser-redirect connect flow.
	AuthCodeURL(state string) string

	// ExchangeCode exchanges the authorization code for an access
	// token. Fails with ErrUpstreamAuth on a non-success status,
	// ErrUpstreamUnreachable on transport errors, ErrInvalidResponse
	// on an unusable body.
	ExchangeCode(ctx context.Context, code string) (string, *TokenResponse, error)

	// FetchProfile retrieves the provider profile using the access
	// token. Same failure taxonomy as ExchangeCode.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)

	// Revoke invalidates the token upstream, best effort. Provider-side
	// rejections are absorbed; only transport failures are returned,
	// and callers treat even those as non-fatal.
	Revoke(ctx context.Context, token string) error
}

// Registry maps account types to their provider adapters. Dispatch is
// by tag lookup on the closed provider set.
type Registry map[models.AccountType]Adapter

// Get returns the adapter for the given account type, if registered.
func (r Registry) Get(t models.AccountType) (Adapter, bool) {
	a, ok := r[t]
	return a, ok
}

// Names returns the registered provider type names, for startup logging.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for t := range r {
		names = append(names, string(t))
	}
	return names
}
