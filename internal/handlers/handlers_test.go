package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/config"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/metrics"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/middleware"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a configurable rideshare.Adapter for handler tests.
type fakeAdapter struct {
	accountType models.AccountType
	displayName string

	exchangeErr error
	profileErr  error
	revokeErr   error
}

func (f *fakeAdapter) Type() models.AccountType { return f.accountType }
func (f *fakeAdapter) DisplayName() string      { return f.displayName }
func (f *fakeAdapter) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (f *fakeAdapter) ExchangeCode(
	ctx context.Context,
	code string,
) (string, *rideshare.TokenResponse, error) {
	if f.exchangeErr != nil {
		return "", nil, f.exchangeErr
	}
	return "token-" + code, &rideshare.TokenResponse{AccessToken: "token-" + code}, nil
}

func (f *fakeAdapter) FetchProfile(
	ctx context.Context,
	accessToken string,
) (*rideshare.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &rideshare.Profile{Identifier: "rider@example.com"}, nil
}

func (f *fakeAdapter) Revoke(ctx context.Context, token string) error {
	return f.revokeErr
}

type fixture struct {
	router *gin.Engine
	store  *store.Store
	tokens *services.TokenService
	users  *services.UserService
	uber   *fakeAdapter
	lyft   *fakeAdapter
}

// newFixture assembles the full HTTP surface against an in-memory
// sqlite store and fake provider adapters.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
		BaseURL:       "http://localhost:8080",
	}

	uber := &fakeAdapter{accountType: models.AccountTypeUber, displayName: "Uber"}
	lyft := &fakeAdapter{accountType: models.AccountTypeLyft, displayName: "Lyft"}
	registry := rideshare.Registry{
		models.AccountTypeUber: uber,
		models.AccountTypeLyft: lyft,
	}

	recorder := &metrics.NoopMetrics{}
	tokens := services.NewTokenService(cfg)
	users := services.NewUserService(st, recorder)
	accounts := services.NewAccountService(st, registry)
	links := services.NewLinkService(
		st,
		registry,
		cache.NewMemoryCache[models.Account](),
		recorder,
	)

	authHandler := NewAuthHandler(users, tokens)
	accountHandler := NewAccountHandler(accounts)
	rideshareHandler := NewRideshareHandler(links, "http://localhost:8080")

	router := gin.New()
	router.Use(sessions.Sessions("gigflow_session", cookie.NewStore([]byte("test-session-secret"))))

	router.POST("/login", authHandler.Login)
	router.POST("/register", authHandler.Register)

	authed := router.Group("/", middleware.RequireAuth(tokens, recorder))
	authed.POST("/accounts", accountHandler.Create)
	authed.GET("/accounts", accountHandler.List)
	authed.GET("/accounts/:id", accountHandler.Get)
	authed.PUT("/accounts/:id", accountHandler.Update)
	authed.DELETE("/accounts/:id", accountHandler.Delete)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.GET("/accounts", accountHandler.ListAll)

	authed.GET("/rideshare/:provider/connect", rideshareHandler.ConnectRedirect)
	authed.POST("/rideshare/:provider/connect", rideshareHandler.ConnectDirect)
	authed.POST("/rideshare/:provider/:id/disconnect", rideshareHandler.Disconnect)
	authed.GET("/rideshare/:provider/:id/status", rideshareHandler.Status)
	router.GET("/rideshare/:provider/callback", rideshareHandler.Callback)

	return &fixture{
		router: router,
		store:  st,
		tokens: tokens,
		users:  users,
		uber:   uber,
		lyft:   lyft,
	}
}

// registerUser creates a user through the service and returns a bearer
// token for it.
func (f *fixture) registerUser(t *testing.T, username, role string) (string, *models.User) {
	t.Helper()
	user, err := f.users.Register(
		context.Background(),
		username,
		username+"@example.com",
		"password1234",
		"",
	)
	require.NoError(t, err)

	if role != "" && role != user.Role {
		user.Role = role
		require.NoError(t, f.store.UpdateUser(user))
	}

	token, _, err := f.tokens.Issue(user)
	require.NoError(t, err)
	return token, user
}

func (f *fixture) do(
	t *testing.T,
	method, path, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/login", "", gin.H{
		"username": "alice",
		"password": "password1234",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/login", "", gin.H{
		"username": "nobody",
		"password": "password1234",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password1234",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username_taken")
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "short",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccounts_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	token, user := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/accounts", token, gin.H{
		"type":        "wallet",
		"balance":     42.5,
		"description": "day wallet",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeJSON(t, w)
	assert.Equal(t, user.ID, created["user_id"])
	assert.Equal(t, "wallet", created["type"])

	id := created["id"].(string)
	w = f.do(t, http.MethodGet, "/accounts/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeJSON(t, w)
	assert.Equal(t, 42.5, got["balance"])
}

func TestAccounts_CreateInvalidType(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/accounts", token, gin.H{"type": "bitcoin"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_account_type")
}

func TestAccounts_RequireAuth(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/accounts", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccounts_ForeignAccountForbidden(t *testing.T) {
	f := newFixture(t)
	aliceToken, _ := f.registerUser(t, "alice", "")
	bobToken, _ := f.registerUser(t, "bob", "")

	w := f.do(t, http.MethodPost, "/accounts", aliceToken, gin.H{"type": "wallet"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodGet, "/accounts/"+id, bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestAccounts_AdminCanReadForeignAccount(t *testing.T) {
	f := newFixture(t)
	aliceToken, _ := f.registerUser(t, "alice", "")
	adminToken, _ := f.registerUser(t, "root", "admin")

	w := f.do(t, http.MethodPost, "/accounts", aliceToken, gin.H{"type": "savings"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodGet, "/accounts/"+id, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAccounts_ListOwnOnly(t *testing.T) {
	f := newFixture(t)
	aliceToken, _ := f.registerUser(t, "alice", "")
	bobToken, _ := f.registerUser(t, "bob", "")

	for i := 0; i < 3; i++ {
		w := f.do(t, http.MethodPost, "/accounts", aliceToken, gin.H{"type": "wallet"})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := f.do(t, http.MethodPost, "/accounts", bobToken, gin.H{"type": "wallet"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/accounts", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(3), body["count"])
}

func TestAccounts_ListAllRequiresElevation(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodGet, "/accounts?all=true", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccounts_AdminListingRoute(t *testing.T) {
	f := newFixture(t)
	aliceToken, _ := f.registerUser(t, "alice", "")
	adminToken, _ := f.registerUser(t, "root", "admin")

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodPost, "/accounts", aliceToken, gin.H{"type": "wallet"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// The admin group's middleware rejects regular callers outright.
	w := f.do(t, http.MethodGet, "/admin/accounts", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/admin/accounts", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(2), body["count"])
}

func TestAccounts_UpdatePartial(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/accounts", token, gin.H{
		"type":        "wallet",
		"balance":     10.0,
		"description": "before",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodPut, "/accounts/"+id, token, gin.H{"balance": 99.0})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeJSON(t, w)
	assert.Equal(t, 99.0, updated["balance"])
	assert.Equal(t, "before", updated["description"])
}

func TestAccounts_Delete(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/accounts", token, gin.H{"type": "wallet"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodDelete, "/accounts/"+id, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/accounts/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRideshare_ConnectDirect(t *testing.T) {
	f := newFixture(t)
	token, user := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/rideshare/uber/connect", token, gin.H{"code": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, user.ID, body["user_id"])
	assert.Equal(t, "uber", body["type"])
	assert.Equal(t, true, body["is_active"])
	assert.Contains(t, body["description"], "Connected Uber account")
	// The token never leaves the server
	assert.NotContains(t, w.Body.String(), "token-abc")
}

func TestRideshare_ConnectUnsupportedProvider(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/rideshare/bolt/connect", token, gin.H{"code": "abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_provider")
}

func TestRideshare_ConnectUpstreamRejection(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")
	f.uber.exchangeErr = rideshare.ErrUpstreamAuth

	w := f.do(t, http.MethodPost, "/rideshare/uber/connect", token, gin.H{"code": "bad"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_auth_failure")
}

func TestRideshare_ConnectUpstreamUnreachable(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")
	f.uber.exchangeErr = rideshare.ErrUpstreamUnreachable

	w := f.do(t, http.MethodPost, "/rideshare/uber/connect", token, gin.H{"code": "abc"})
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unreachable")
}

func TestRideshare_DisconnectLifecycle(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/rideshare/lyft/connect", token, gin.H{"code": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodGet, "/rideshare/lyft/"+id+"/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["connected"])

	w = f.do(t, http.MethodPost, "/rideshare/lyft/"+id+"/disconnect", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeJSON(t, w)["is_active"])

	w = f.do(t, http.MethodGet, "/rideshare/lyft/"+id+"/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeJSON(t, w)["connected"])
}

func TestRideshare_DisconnectWrongProvider(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodPost, "/rideshare/uber/connect", token, gin.H{"code": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodPost, "/rideshare/lyft/"+id+"/disconnect", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "wrong_provider")
}

func TestRideshare_DisconnectForeignForbidden(t *testing.T) {
	f := newFixture(t)
	aliceToken, _ := f.registerUser(t, "alice", "")
	bobToken, _ := f.registerUser(t, "bob", "")

	w := f.do(t, http.MethodPost, "/rideshare/uber/connect", aliceToken, gin.H{"code": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decodeJSON(t, w)["id"].(string)

	w = f.do(t, http.MethodPost, "/rideshare/uber/"+id+"/disconnect", bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestRideshare_StatusNotFound(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodGet, "/rideshare/uber/missing-id/status", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestRideshare_ConnectRedirectSetsStateAndLocation(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodGet, "/rideshare/uber/connect", token, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "https://provider.example.com/authorize?state=")
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))

	// The state is a 48-char hex string from the shared crypto helper.
	parsed, err := url.Parse(location)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.Len(t, state, 48)
	_, err = hex.DecodeString(state)
	assert.NoError(t, err)
}

func TestRideshare_CallbackStateMismatch(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	// Start the redirect flow to get a session cookie with real state
	w := f.do(t, http.MethodGet, "/rideshare/uber/connect", token, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	cookie := w.Header().Get("Set-Cookie")

	req := httptest.NewRequest(
		http.MethodGet,
		"/rideshare/uber/callback?state=forged&code=abc",
		nil,
	)
	req.Header.Set("Cookie", cookie)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_state")
}

func TestRideshare_CallbackWithoutSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/rideshare/uber/callback?state=x&code=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_state")
}

func TestRideshare_CallbackRoundTrip(t *testing.T) {
	f := newFixture(t)
	token, user := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodGet, "/rideshare/uber/connect", token, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	cookie := w.Header().Get("Set-Cookie")

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	req := httptest.NewRequest(
		http.MethodGet,
		"/rideshare/uber/callback?state="+url.QueryEscape(state)+"&code=abc",
		nil,
	)
	req.Header.Set("Cookie", cookie)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, user.ID, body["user_id"])
	assert.Equal(t, true, body["is_active"])
}

func TestRideshare_CallbackFollowsSafeRedirect(t *testing.T) {
	f := newFixture(t)
	token, _ := f.registerUser(t, "alice", "")

	w := f.do(t, http.MethodGet, "/rideshare/uber/connect?redirect=/wallet", token, nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	cookie := w.Header().Get("Set-Cookie")

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")

	req := httptest.NewRequest(
		http.MethodGet,
		"/rideshare/uber/callback?state="+url.QueryEscape(state)+"&code=abc",
		nil,
	)
	req.Header.Set("Cookie", cookie)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/wallet", w.Header().Get("Location"))
}
