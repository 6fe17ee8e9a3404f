package services

import (
	"context"
	"errors"
	"log"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/core"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles local credential authentication and user lookups.
type UserService struct {
	store   *store.Store
	metrics core.Recorder
}

func NewUserService(s *store.Store, recorder core.Recorder) *UserService {
	return &UserService{store: s, metrics: recorder}
}

// Authenticate verifies a username/password pair against the stored
// bcrypt hash. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Authenticate(
	ctx context.Context,
	username, password string,
) (*models.User, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		// Burn a comparison anyway so the timing of the failure does not
		// reveal whether the username exists.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
			[]byte(password),
		)
		s.metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash),
		[]byte(password),
	); err != nil {
		log.Printf("[Auth] Failed login for user=%s", username)
		s.metrics.RecordLogin(false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(true)
	return user, nil
}

// Register creates a new user with a bcrypt-hashed password.
func (s *UserService) Register(
	ctx context.Context,
	username, email, password, fullName string,
) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "user",
		FullName:     fullName,
	}

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrUsernameConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	log.Printf("[Auth] New user registered: %s", username)
	return user, nil
}

func (s *UserService) GetUserByID(id string) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
