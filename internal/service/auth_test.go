package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/utils"
)

func newTestAuth(t *testing.T) (*Authenticator, *memAdmins, *memSessions) {
	t.Helper()
	hash, err := utils.HashPassword("adminpass123", bcrypt.MinCost)
	require.NoError(t, err)
	admins := &memAdmins{byName: map[string]model.Admin{
		"admin1":  {ID: "a1", Username: "admin1", PasswordHash: hash, Name: "Admin One", IsActive: true},
		"retired": {ID: "a2", Username: "retired", PasswordHash: hash, Name: "Retired", IsActive: false},
	}}
	sessions := newMemSessions(admins)
	return NewAuthenticator(admins, sessions, 7*24*time.Hour, discardLogger()), admins, sessions
}

func TestAuthenticateResolvesUntilLogout(t *testing.T) {
	ctx := context.Background()
	auth, _, sessions := newTestAuth(t)

	res, err := auth.Authenticate(ctx, "admin1", "adminpass123")
	require.NoError(t, err)
	require.Equal(t, model.AdminIdentity{ID: "a1", Username: "admin1", Name: "Admin One"}, res.Admin)
	require.Len(t, res.Token, utils.SessionTokenBytes*2)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), res.ExpiresAt, time.Minute)

	id, err := auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, "a1", id.ID)

	require.NoError(t, auth.Logout(ctx, res.Token))
	_, err = auth.ResolveSession(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Zero(t, sessions.count())

	// second logout is a no-op
	require.NoError(t, auth.Logout(ctx, res.Token))
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	auth, _, sessions := newTestAuth(t)

	_, err := auth.Authenticate(ctx, "nobody", "adminpass123")
	require.ErrorIs(t, err, ErrAdminNotFound)

	_, err = auth.Authenticate(ctx, "Admin1", "adminpass123")
	require.ErrorIs(t, err, ErrAdminNotFound, "usernames are case-sensitive")

	_, err = auth.Authenticate(ctx, "admin1", "wrong")
	require.ErrorIs(t, err, ErrBadCredential)

	_, err = auth.Authenticate(ctx, "retired", "adminpass123")
	require.ErrorIs(t, err, ErrAdminInactive)
	_, err = auth.Authenticate(ctx, "retired", "wrong")
	require.ErrorIs(t, err, ErrAdminInactive)

	require.Zero(t, sessions.count())
}

func TestDeactivatedAdminLosesExistingSessions(t *testing.T) {
	ctx := context.Background()
	auth, admins, _ := newTestAuth(t)

	res, err := auth.Authenticate(ctx, "admin1", "adminpass123")
	require.NoError(t, err)

	a := admins.byName["admin1"]
	a.IsActive = false
	admins.byName["admin1"] = a

	_, err = auth.ResolveSession(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	auth, _, sessions := newTestAuth(t)

	first, err := auth.Authenticate(ctx, "admin1", "adminpass123")
	require.NoError(t, err)
	second, err := auth.Authenticate(ctx, "admin1", "adminpass123")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)
	require.Equal(t, 2, sessions.count())

	require.NoError(t, auth.Logout(ctx, first.Token))
	_, err = auth.ResolveSession(ctx, second.Token)
	require.NoError(t, err)
}

func TestExpiredSessionRejectedAndSwept(t *testing.T) {
	ctx := context.Background()
	auth, _, sessions := newTestAuth(t)

	start := time.Now()
	auth.now = func() time.Time { return start }
	res, err := auth.Authenticate(ctx, "admin1", "adminpass123")
	require.NoError(t, err)

	auth.now = func() time.Time { return start.Add(7*24*time.Hour + time.Second) }
	_, err = auth.ResolveSession(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	auth.sweep(ctx)
	require.Zero(t, sessions.count())
}

func TestResolveSessionRejectsGarbage(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	_, err := auth.ResolveSession(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = auth.ResolveSession(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
}
