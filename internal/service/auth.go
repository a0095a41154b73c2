package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
	"github.com/iliyamo/storefront-api/internal/utils"
)

// AdminStore is the part of repository.AdminRepo the Authenticator needs.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (model.Admin, error)
}

// SessionStore is satisfied by repository.SessionRepo.
type SessionStore interface {
	Create(ctx context.Context, s model.AdminSession) error
	GetValidSession(ctx context.Context, tokenHash string, now time.Time) (model.SessionAdmin, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionResult is returned by a successful login.  Token is the only
// copy of the bearer token; the server keeps just its digest.
type SessionResult struct {
	Admin     model.AdminIdentity `json:"admin"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

// Authenticator issues, resolves and revokes admin bearer sessions.
type Authenticator struct {
	admins   AdminStore
	sessions SessionStore
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewAuthenticator(admins AdminStore, sessions SessionStore, ttl time.Duration, log *slog.Logger) *Authenticator {
	return &Authenticator{admins: admins, sessions: sessions, ttl: ttl, log: log, now: time.Now}
}

// Authenticate checks a username/password pair and opens a new session.
// A bcrypt comparison runs on every path so response time does not tell
// whether the username exists.  Admins may hold any number of sessions.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (SessionResult, error) {
	adm, err := a.admins.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		utils.BurnPasswordCheck(password)
		return SessionResult{}, ErrAdminNotFound
	}
	if err != nil {
		return SessionResult{}, err
	}
	passwordOK := utils.VerifyPassword(adm.PasswordHash, password)
	if !adm.IsActive {
		return SessionResult{}, ErrAdminInactive
	}
	if !passwordOK {
		return SessionResult{}, ErrBadCredential
	}

	token, err := utils.NewSessionToken()
	if err != nil {
		return SessionResult{}, err
	}
	now := a.now().UTC()
	sess := model.AdminSession{
		TokenHash: utils.HashToken(token),
		AdminID:   adm.ID,
		ExpiresAt: now.Add(a.ttl),
		CreatedAt: now,
	}
	if err := a.sessions.Create(ctx, sess); err != nil {
		return SessionResult{}, err
	}
	a.log.Info("admin logged in", "admin_id", adm.ID, "expires_at", sess.ExpiresAt)
	return SessionResult{Admin: adm.Identity(), Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Logout drops the session behind token.  Unknown tokens are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.sessions.Delete(ctx, utils.HashToken(token))
}

// ResolveSession maps a bearer token to the admin it belongs to.  The
// admin's active flag is checked on every call, so disabling an admin
// locks out sessions issued before.
func (a *Authenticator) ResolveSession(ctx context.Context, token string) (model.AdminIdentity, error) {
	if token == "" {
		return model.AdminIdentity{}, ErrUnauthenticated
	}
	sa, err := a.sessions.GetValidSession(ctx, utils.HashToken(token), a.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return model.AdminIdentity{}, ErrUnauthenticated
	}
	if err != nil {
		return model.AdminIdentity{}, err
	}
	if !sa.IsActive {
		return model.AdminIdentity{}, ErrUnauthenticated
	}
	return sa.Admin, nil
}

// StartSweeper purges expired sessions every interval until ctx is done.
// A non-positive interval disables the sweep.
func (a *Authenticator) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				a.sweep(ctx)
			}
		}
	}()
}

func (a *Authenticator) sweep(ctx context.Context) {
	n, err := a.sessions.DeleteExpired(ctx, a.now().UTC())
	if err != nil {
		a.log.Error("session sweep failed", "err", err)
		return
	}
	if n > 0 {
		a.log.Info("expired sessions purged", "count", n)
	}
}
