package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/storefront-api/internal/model"
)

// ProductRepo encapsulates queries on the products table.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id, seller_id, title, description, size, color, material, price_kr, image_url, is_available, wear_days, created_at"

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.Size, &p.Color, &p.Material,
		&p.PriceKr, &p.ImageURL, &p.IsAvailable, &p.WearDays, &p.CreatedAt)
	return p, err
}

// Create inserts a product.  An unknown seller yields ErrReference.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		p.ID, p.SellerID, p.Title, p.Description, p.Size, p.Color, p.Material,
		p.PriceKr, p.ImageURL, p.IsAvailable, p.WearDays, p.CreatedAt)
	return translate(err)
}

// GetByID fetches a product.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id))
	return p, translate(err)
}

// List returns products, newest first, narrowed by the filter.
func (r *ProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.SellerID != "" {
		where = append(where, "seller_id = ?")
		args = append(args, f.SellerID)
	}
	if f.Available != nil {
		where = append(where, "is_available = ?")
		args = append(args, *f.Available)
	}
	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies a partial update.  ErrNotFound when the id is unknown.
func (r *ProductRepo) Update(ctx context.Context, id string, p model.ProductPatch) error {
	var set setList
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Size != nil {
		set.add("size", *p.Size)
	}
	if p.Color != nil {
		set.add("color", *p.Color)
	}
	if p.Material != nil {
		set.add("material", *p.Material)
	}
	if p.PriceKr != nil {
		set.add("price_kr", *p.PriceKr)
	}
	if p.ImageURL != nil {
		set.add("image_url", *p.ImageURL)
	}
	if p.IsAvailable != nil {
		set.add("is_available", *p.IsAvailable)
	}
	if p.WearDays != nil {
		set.add("wear_days", *p.WearDays)
	}
	if set.empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET "+strings.Join(set.cols, ", ")+" WHERE id = ?",
		append(set.args, id)...)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}
