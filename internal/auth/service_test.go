package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/ariefcatur/go-stockorders/internal/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-test-secret-test-secret"

func newService(t *testing.T) (*auth.Service, *memstore.Users) {
	t.Helper()
	users := memstore.NewUsers()
	svc := auth.NewService(users, auth.NewTokens(secret), auth.TTLs{
		Access: time.Minute, Refresh: time.Hour, RefreshRemember: 24 * time.Hour,
	}, zerolog.Nop())
	return svc, users
}

func register(t *testing.T, svc *auth.Service) auth.User {
	t.Helper()
	u, err := svc.Register(context.Background(), auth.Registration{
		Email: "Ana@Example.com", Username: "ana", FullName: "Ana", Password: "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	u := register(t, svc)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err := svc.Register(context.Background(), auth.Registration{Email: "ana@example.com", Username: "other", Password: "long-enough"})
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)
	_, err = svc.Register(context.Background(), auth.Registration{Email: "b@example.com", Username: "ana", Password: "long-enough"})
	require.ErrorIs(t, err, auth.ErrDuplicateUsername)
	_, err = svc.Register(context.Background(), auth.Registration{Email: "not-an-email", Username: "bob", Password: "long-enough"})
	require.ErrorIs(t, err, auth.ErrValidation)
	_, err = svc.Register(context.Background(), auth.Registration{Email: "c@example.com", Username: "carl", Password: "short"})
	require.ErrorIs(t, err, auth.ErrValidation)
}

func TestLoginRefreshLogout(t *testing.T) {
	svc, _ := newService(t)
	u := register(t, svc)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ana", "wrong-password", false)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "whatever1", false)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	pair, err := svc.Login(ctx, "ana@example.com", "correct-horse", true)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	p, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "ana", p.Username)

	_, err = svc.Authenticate(pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken, "refresh token must not authenticate requests")

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	_, err = svc.Authenticate(refreshed.AccessToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", me.Username)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, users := newService(t)
	u := register(t, svc)
	users.SetActive(u.ID, false)

	_, err := svc.Login(context.Background(), "ana", "correct-horse", false)
	require.ErrorIs(t, err, auth.ErrInactiveUser)
}

func TestTokens_RejectsForeignSignatureAndExpiry(t *testing.T) {
	u := auth.User{ID: 9, Username: "zed"}
	other, err := auth.NewTokens("another-secret-another-secret-xx").Issue(u, auth.TokenAccess, time.Minute)
	require.NoError(t, err)
	_, err = auth.NewTokens(secret).Parse(other, auth.TokenAccess)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.NewTokens(secret).Issue(u, auth.TokenAccess, -time.Minute)
	require.NoError(t, err)
	_, err = auth.NewTokens(secret).Parse(expired, auth.TokenAccess)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
