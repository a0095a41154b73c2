package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/storefront-api/internal/model"
)

// PromoRepo encapsulates queries on the promo_codes table.
type PromoRepo struct {
	db *sql.DB
}

func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

const promoColumns = "id, code, discount_kr, description, max_usage, usage_count, valid_from, valid_until, is_active, created_at"

func scanPromo(row rowScanner) (model.PromoCode, error) {
	var (
		p        model.PromoCode
		maxUsage sql.NullInt64
		from, to sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Code, &p.DiscountKr, &p.Description, &maxUsage, &p.UsageCount, &from, &to, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if maxUsage.Valid {
		n := int(maxUsage.Int64)
		p.MaxUsage = &n
	}
	p.ValidFrom = timePtr(from)
	p.ValidUntil = timePtr(to)
	return p, nil
}

// List returns every promo code, newest first.
func (r *PromoRepo) List(ctx context.Context) ([]model.PromoCode, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+promoColumns+" FROM promo_codes ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByCode looks up a code.  Callers normalize case before calling.
func (r *PromoRepo) GetByCode(ctx context.Context, code string) (model.PromoCode, error) {
	p, err := scanPromo(r.db.QueryRowContext(ctx, "SELECT "+promoColumns+" FROM promo_codes WHERE code = ?", code))
	return p, translate(err)
}

// GetByID fetches a promo code by id.
func (r *PromoRepo) GetByID(ctx context.Context, id string) (model.PromoCode, error) {
	p, err := scanPromo(r.db.QueryRowContext(ctx, "SELECT "+promoColumns+" FROM promo_codes WHERE id = ?", id))
	return p, translate(err)
}

// Create inserts a promo code.  A taken code yields ErrDuplicate.
func (r *PromoRepo) Create(ctx context.Context, p *model.PromoCode) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO promo_codes ("+promoColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		p.ID, p.Code, p.DiscountKr, p.Description, nullInt(p.MaxUsage), p.UsageCount,
		nullTime(p.ValidFrom), nullTime(p.ValidUntil), p.IsActive, p.CreatedAt)
	return translate(err)
}

// Update replaces the editable columns of a promo code.  UsageCount is
// left alone; it only moves through IncrementUsage.
func (r *PromoRepo) Update(ctx context.Context, p *model.PromoCode) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promo_codes
		 SET code = ?, discount_kr = ?, description = ?, max_usage = ?, valid_from = ?, valid_until = ?, is_active = ?
		 WHERE id = ?`,
		p.Code, p.DiscountKr, p.Description, nullInt(p.MaxUsage), nullTime(p.ValidFrom), nullTime(p.ValidUntil), p.IsActive, p.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// Delete removes a promo code.
func (r *PromoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM promo_codes WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// IncrementUsage bumps usage_count in place, guarded by the usage cap and
// active flag in the same statement, so concurrent redemptions can never
// push the count past max_usage.  It reports whether a row was updated.
func (r *PromoRepo) IncrementUsage(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promo_codes SET usage_count = usage_count + 1
		 WHERE id = ? AND is_active = 1 AND (max_usage IS NULL OR usage_count < max_usage)`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseUsage gives back one use taken by IncrementUsage, for a checkout
// whose order insert failed.  The count never drops below zero.
func (r *PromoRepo) ReleaseUsage(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE promo_codes SET usage_count = usage_count - 1 WHERE id = ? AND usage_count > 0", id)
	return err
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
