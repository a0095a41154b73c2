package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/storefront-api/internal/model"
)

// SellerRepo encapsulates queries on the sellers table.
type SellerRepo struct {
	db *sql.DB
}

func NewSellerRepo(db *sql.DB) *SellerRepo { return &SellerRepo{db: db} }

const sellerColumns = "id, alias, location, age, bio, commission_rate, is_active, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeller(row rowScanner) (model.Seller, error) {
	var s model.Seller
	err := row.Scan(&s.ID, &s.Alias, &s.Location, &s.Age, &s.Bio, &s.CommissionRate, &s.IsActive, &s.CreatedAt)
	return s, err
}

// Create inserts a seller.
func (r *SellerRepo) Create(ctx context.Context, s *model.Seller) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sellers ("+sellerColumns+") VALUES (?,?,?,?,?,?,?,?)",
		s.ID, s.Alias, s.Location, s.Age, s.Bio, s.CommissionRate, s.IsActive, s.CreatedAt)
	return translate(err)
}

// GetByID fetches a seller regardless of its active flag.
func (r *SellerRepo) GetByID(ctx context.Context, id string) (model.Seller, error) {
	s, err := scanSeller(r.db.QueryRowContext(ctx, "SELECT "+sellerColumns+" FROM sellers WHERE id = ?", id))
	return s, translate(err)
}

// List returns sellers ordered by alias.  Inactive sellers are only
// included when includeInactive is set (admin views).
func (r *SellerRepo) List(ctx context.Context, includeInactive bool) ([]model.Seller, error) {
	q := "SELECT " + sellerColumns + " FROM sellers"
	if !includeInactive {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY alias"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Seller{}
	for rows.Next() {
		s, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update applies a partial update.  ErrNotFound when the id is unknown.
func (r *SellerRepo) Update(ctx context.Context, id string, p model.SellerPatch) error {
	var set setList
	if p.Alias != nil {
		set.add("alias", *p.Alias)
	}
	if p.Location != nil {
		set.add("location", *p.Location)
	}
	if p.Age != nil {
		set.add("age", *p.Age)
	}
	if p.Bio != nil {
		set.add("bio", *p.Bio)
	}
	if p.CommissionRate != nil {
		set.add("commission_rate", *p.CommissionRate)
	}
	if p.IsActive != nil {
		set.add("is_active", *p.IsActive)
	}
	if set.empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE sellers SET "+strings.Join(set.cols, ", ")+" WHERE id = ?",
		append(set.args, id)...)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}
