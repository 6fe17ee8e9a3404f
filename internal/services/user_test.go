package services

import (
	"context"
	"testing"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(newTestStore(t), metrics.NewNoopMetrics())
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret", "Alice Driver")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "user", user.Role)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	authed, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestUserService_Authenticate_WrongPassword(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Authenticate_UnknownUser(t *testing.T) {
	svc := newUserFixture(t)

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "s3cret", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserService_GetUserByID(t *testing.T) {
	svc := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret", "")
	require.NoError(t, err)

	got, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
