package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/storefront-api/internal/model"
)

// SessionRepo is the admin session store.  Rows are keyed by the SHA-256
// digest of the bearer token.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.AdminSession) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO admin_sessions (token_hash, admin_id, expires_at, created_at) VALUES (?,?,?,?)",
		s.TokenHash, s.AdminID, s.ExpiresAt, s.CreatedAt)
	return translate(err)
}

// GetValidSession joins the session to its admin and filters out expired
// rows.  The admin's active flag is returned rather than filtered so the
// caller decides how to report it.  ErrNotFound means no live session.
func (r *SessionRepo) GetValidSession(ctx context.Context, tokenHash string, now time.Time) (model.SessionAdmin, error) {
	const q = `SELECT a.id, a.username, a.name, a.is_active, s.expires_at
	           FROM admin_sessions s
	           JOIN admins a ON a.id = s.admin_id
	           WHERE s.token_hash = ? AND s.expires_at > ?
	           LIMIT 1`
	var sa model.SessionAdmin
	err := r.db.QueryRowContext(ctx, q, tokenHash, now).
		Scan(&sa.Admin.ID, &sa.Admin.Username, &sa.Admin.Name, &sa.IsActive, &sa.ExpiresAt)
	return sa, translate(err)
}

// Delete removes a session.  Deleting an unknown token is not an error.
func (r *SessionRepo) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE token_hash = ?", tokenHash)
	return err
}

// DeleteExpired purges sessions that expired at or before now and returns
// how many rows went away.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
