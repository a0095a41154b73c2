package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/storefront-api/internal/model"
)

// AdminRepo persists back-office accounts.
type AdminRepo struct{ db *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

const adminColumns = "id, username, password_hash, name, is_active, created_at"

// Create inserts an admin.  A taken username yields ErrDuplicate.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO admins (id, username, password_hash, name, is_active, created_at) VALUES (?,?,?,?,?,?)",
		a.ID, a.Username, a.PasswordHash, a.Name, a.IsActive, a.CreatedAt)
	return translate(err)
}

// GetByUsername fetches an admin by exact, case-sensitive username.  The
// column uses a binary collation so MySQL does not fold case either.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (model.Admin, error) {
	return r.getOne(ctx, "SELECT "+adminColumns+" FROM admins WHERE username = ? LIMIT 1", username)
}

// GetByID fetches an admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (model.Admin, error) {
	return r.getOne(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = ? LIMIT 1", id)
}

func (r *AdminRepo) getOne(ctx context.Context, q string, arg any) (model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Name, &a.IsActive, &a.CreatedAt)
	return a, translate(err)
}

// SetActive toggles whether the admin may authenticate.
func (r *AdminRepo) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE admins SET is_active = ? WHERE username = ?", active, username)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetPassword replaces the stored hash and drops every session of the
// admin in the same transaction, so a token issued under the old password
// stops working.  It returns how many sessions were revoked.
func (r *AdminRepo) SetPassword(ctx context.Context, username, hash string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "UPDATE admins SET password_hash = ? WHERE username = ?", hash, username)
	if err != nil {
		return 0, err
	}
	if err := requireAffected(res); err != nil {
		return 0, err
	}
	res, err = tx.ExecContext(ctx,
		"DELETE FROM admin_sessions WHERE admin_id IN (SELECT id FROM admins WHERE username = ?)", username)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
