package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/authz"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/rideshare"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AccountService implements the account CRUD operations. Every
// operation resolves existence before permissions, so a 404 never
// leaks into a 403 or vice versa.
type AccountService struct {
	store    *store.Store
	registry rideshare.Registry
}

func NewAccountService(s *store.Store, registry rideshare.Registry) *AccountService {
	return &AccountService{store: s, registry: registry}
}

// CreateAccountInput carries the caller-settable account fields.
type CreateAccountInput struct {
	Type        models.AccountType
	Balance     float64
	Description string
}

// UpdateAccountInput carries the mutable account fields. Nil pointers
// leave the field unchanged. Token and IsActive are never settable
// through CRUD; only the rideshare link flows touch them.
type UpdateAccountInput struct {
	Balance     *float64
	Description *string
}

// Create creates an account owned by the caller. Rideshare-typed
// accounts start disconnected; tokens only arrive via the link flow.
func (s *AccountService) Create(
	ctx context.Context,
	caller authz.Caller,
	input CreateAccountInput,
) (*models.Account, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidAccountType
	}

	account := &models.Account{
		ID:          uuid.New().String(),
		UserID:      caller.UserID,
		Type:        input.Type,
		Balance:     input.Balance,
		Description: input.Description,
		LastUpdated: time.Now(),
	}

	if err := s.store.CreateAccount(account); err != nil {
		return nil, err
	}

	return account, nil
}

// Get returns the account if the caller owns it or is elevated.
func (s *AccountService) Get(
	ctx context.Context,
	caller authz.Caller,
	id string,
) (*models.Account, error) {
	account, err := s.store.GetAccountByID(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if err := authz.CanAccess(account.UserID, caller); err != nil {
		return nil, err
	}

	return account, nil
}

// List returns a page of the caller's own accounts.
func (s *AccountService) List(
	ctx context.Context,
	caller authz.Caller,
	skip, limit int,
) ([]models.Account, error) {
	skip, limit = clampPage(skip, limit)
	return s.store.GetAccountsByUserID(caller.UserID, skip, limit)
}

// ListAll returns a page of every account. Elevated callers only.
func (s *AccountService) ListAll(
	ctx context.Context,
	caller authz.Caller,
	skip, limit int,
) ([]models.Account, error) {
	if !caller.IsElevated() {
		return nil, authz.ErrForbidden
	}
	skip, limit = clampPage(skip, limit)
	return s.store.ListAccounts(skip, limit)
}

// Update applies the mutable fields to an account the caller may access.
func (s *AccountService) Update(
	ctx context.Context,
	caller authz.Caller,
	id string,
	input UpdateAccountInput,
) (*models.Account, error) {
	account, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if input.Balance != nil {
		account.Balance = *input.Balance
	}
	if input.Description != nil {
		account.Description = *input.Description
	}
	account.LastUpdated = time.Now()

	if err := s.store.UpdateAccount(account); err != nil {
		return nil, err
	}

	return account, nil
}

// Delete removes an account the caller may access. If the account
// still holds a live provider token, the token is revoked upstream
// best effort before the row goes away; a failed revocation never
// blocks the delete.
func (s *AccountService) Delete(
	ctx context.Context,
	caller authz.Caller,
	id string,
) error {
	account, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}

	if account.Connected() {
		if adapter, ok := s.registry.Get(account.Type); ok {
			if err := adapter.Revoke(ctx, account.Token); err != nil {
				log.Printf(
					"[Account] Revoke on delete failed for account=%s provider=%s: %v",
					account.ID,
					account.Type,
					err,
				)
			}
		}
	}

	return s.store.DeleteAccount(id)
}

// clampPage normalizes pagination parameters.
func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit
}
