package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/authz"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/cache"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/google/uuid"
)

const accountCacheTTL = 30 * time.Second

// Metric result labels for link attempts.
const (
	linkResultSuccess         = "success"
	linkResultAuthFailure     = "upstream_auth_failure"
	linkResultUnreachable     = "upstream_unreachable"
	linkResultInvalidResponse = "invalid_response"
	linkResultError           = "error"
)

// LinkStatus describes the connection state of a rideshare account.
type LinkStatus struct {
	AccountID   string             `json:"account_id"`
	Provider    models.AccountType `json:"provider"`
	Connected   bool               `json:"connected"`
	Description string             `json:"description"`
	LastUpdated time.Time          `json:"last_updated"`
}

// LinkService orchestrates rideshare account linking: code exchange,
// profile fetch, upsert of the linkage row, and upstream revocation on
// disconnect. Concurrent connects for the same (owner, provider) pair
// are serialized through a keyed mutex so the one-linkage-per-pair rule
// holds without a partial DB index.
type LinkService struct {
	store    *store.Store
	registry rideshare.Registry
	cache    cache.CacheWithFetch[models.Account]
	metrics  core.Recorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLinkService(
	s *store.Store,
	registry rideshare.Registry,
	accountCache cache.CacheWithFetch[models.Account],
	recorder core.Recorder,
) *LinkService {
	return &LinkService{
		store:    s,
		registry: registry,
		cache:    accountCache,
		metrics:  recorder,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing link operations for one
// (owner, provider) pair. Locks are never removed; the map is bounded
// by users times providers.
func (s *LinkService) lockFor(userID string, provider models.AccountType) *sync.Mutex {
	key := userID + "|" + string(provider)
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// AuthURL returns the provider authorization URL for the redirect flow.
func (s *LinkService) AuthURL(provider models.AccountType, state string) (string, error) {
	adapter, ok := s.registry.Get(provider)
	if !ok {
		return "", ErrUnsupportedProvider
	}
	return adapter.AuthCodeURL(state), nil
}

// Connect exchanges an authorization code and links the provider
// account to the caller. A second connect for the same pair replaces
// the stored token on the existing row; the account ID is stable across
// reconnects. No row is written when any upstream step fails.
func (s *LinkService) Connect(
	ctx context.Context,
	caller authz.Caller,
	provider models.AccountType,
	code string,
) (*models.Account, error) {
	adapter, ok := s.registry.Get(provider)
	if !ok {
		return nil, ErrUnsupportedProvider
	}

	lock := s.lockFor(caller.UserID, provider)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	token, _, err := adapter.ExchangeCode(ctx, code)
	s.metrics.RecordUpstreamCall(string(provider), "exchange", time.Since(start))
	if err != nil {
		s.metrics.RecordLinkAttempt(string(provider), linkResult(err))
		return nil, err
	}

	start = time.Now()
	profile, err := adapter.FetchProfile(ctx, token)
	s.metrics.RecordUpstreamCall(string(provider), "profile", time.Since(start))
	if err != nil {
		s.metrics.RecordLinkAttempt(string(provider), linkResult(err))
		return nil, err
	}

	existing := true
	account, err := s.store.FindAccountByUserAndType(caller.UserID, provider)
	switch {
	case err == nil:
		// Reconnect: replace the token in place, same account ID.
	case errors.Is(err, store.ErrRecordNotFound):
		existing = false
		account = &models.Account{
			ID:     uuid.New().String(),
			UserID: caller.UserID,
			Type:   provider,
		}
	default:
		return nil, err
	}

	account.Token = token
	account.IsActive = true
	account.Description = fmt.Sprintf(
		"Connected %s account: %s",
		adapter.DisplayName(),
		profile.Identifier,
	)
	account.LastUpdated = time.Now()

	if existing {
		err = s.store.UpdateAccount(account)
	} else {
		err = s.store.CreateAccount(account)
	}
	if err != nil {
		// The provider issued a token we cannot keep. Revoke it best
		// effort so it does not stay live upstream with no local record.
		if revokeErr := adapter.Revoke(ctx, token); revokeErr != nil {
			log.Printf(
				"[Link] Compensating revoke failed for user=%s provider=%s: %v",
				caller.UserID,
				provider,
				revokeErr,
			)
		}
		s.metrics.RecordLinkAttempt(string(provider), linkResultError)
		return nil, err
	}

	s.invalidate(ctx, account.ID)
	s.metrics.RecordLinkAttempt(string(provider), linkResultSuccess)
	log.Printf("[Link] Connected provider=%s user=%s account=%s", provider, caller.UserID, account.ID)
	return account, nil
}

// Disconnect revokes the stored token upstream and clears the local
// linkage. The revocation outcome is absorbed: once a disconnect is
// requested, the local token is cleared no matter what the provider
// said, so the account never stays active with a token the user asked
// to drop.
func (s *LinkService) Disconnect(
	ctx context.Context,
	caller authz.Caller,
	provider models.AccountType,
	accountID string,
) (*models.Account, error) {
	// First read runs unlocked only to learn the owner for the lock key;
	// the authoritative read happens under the lock.
	owner, _, err := s.resolve(ctx, caller, provider, accountID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(owner.UserID, provider)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock. A reconnect that held the lock first may
	// have stored a fresh token; the revoke must hit what is actually
	// stored, not an earlier snapshot.
	account, adapter, err := s.resolve(ctx, caller, provider, accountID)
	if err != nil {
		return nil, err
	}

	if account.Token != "" {
		start := time.Now()
		revokeErr := adapter.Revoke(ctx, account.Token)
		s.metrics.RecordUpstreamCall(string(provider), "revoke", time.Since(start))
		if revokeErr != nil {
			s.metrics.RecordRevocation(string(provider), "unreachable")
			log.Printf(
				"[Link] Revoke failed for account=%s provider=%s: %v",
				account.ID,
				provider,
				revokeErr,
			)
		} else {
			s.metrics.RecordRevocation(string(provider), "accepted")
		}
	}

	account.Token = ""
	account.IsActive = false
	account.Description = fmt.Sprintf("Disconnected %s account", adapter.DisplayName())
	account.LastUpdated = time.Now()

	if err := s.store.UpdateAccount(account); err != nil {
		s.metrics.RecordDisconnect(string(provider), "error")
		return nil, err
	}

	s.invalidate(ctx, account.ID)
	s.metrics.RecordDisconnect(string(provider), "success")
	log.Printf("[Link] Disconnected provider=%s account=%s", provider, account.ID)
	return account, nil
}

// Status reports the connection state of a rideshare account. Reads go
// through the account cache; permission checks still run per caller on
// the cached value.
func (s *LinkService) Status(
	ctx context.Context,
	caller authz.Caller,
	provider models.AccountType,
	accountID string,
) (*LinkStatus, error) {
	if _, ok := s.registry.Get(provider); !ok {
		return nil, ErrUnsupportedProvider
	}

	account, err := s.cachedAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := authz.CanAccess(account.UserID, caller); err != nil {
		return nil, err
	}

	if account.Type != provider {
		return nil, ErrWrongProvider
	}

	return &LinkStatus{
		AccountID:   account.ID,
		Provider:    account.Type,
		Connected:   account.Connected(),
		Description: account.Description,
		LastUpdated: account.LastUpdated,
	}, nil
}

// resolve loads an account and checks the full precondition chain in
// order: existence, then permission, then provider match. A foreign
// caller gets Forbidden even when the provider is also wrong; the
// account's type is not theirs to learn.
func (s *LinkService) resolve(
	ctx context.Context,
	caller authz.Caller,
	provider models.AccountType,
	accountID string,
) (*models.Account, rideshare.Adapter, error) {
	adapter, ok := s.registry.Get(provider)
	if !ok {
		return nil, nil, ErrUnsupportedProvider
	}

	account, err := s.store.GetAccountByID(accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	if err := authz.CanAccess(account.UserID, caller); err != nil {
		return nil, nil, err
	}

	if account.Type != provider {
		return nil, nil, ErrWrongProvider
	}

	return account, adapter, nil
}

// cachedAccount resolves an account by ID through the cache.
func (s *LinkService) cachedAccount(
	ctx context.Context,
	accountID string,
) (*models.Account, error) {
	account, err := s.cache.GetWithFetch(
		ctx,
		"account:"+accountID,
		accountCacheTTL,
		func(ctx context.Context, key string) (models.Account, error) {
			a, err := s.store.GetAccountByID(accountID)
			if err != nil {
				return models.Account{}, err
			}
			return *a, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// invalidate drops a cached account after a write.
func (s *LinkService) invalidate(ctx context.Context, accountID string) {
	if err := s.cache.Delete(ctx, "account:"+accountID); err != nil {
		log.Printf("[Link] Cache invalidation failed for account=%s: %v", accountID, err)
	}
}

// linkResult maps an adapter error to a metric label.
func linkResult(err error) string {
	switch {
	case errors.Is(err, rideshare.ErrUpstreamAuth):
		return linkResultAuthFailure
	case errors.Is(err, rideshare.ErrUpstreamUnreachable):
		return linkResultUnreachable
	case errors.Is(err, rideshare.ErrInvalidResponse):
		return linkResultInvalidResponse
	default:
		return linkResultError
	}
}
