package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-api/internal/model"
)

// OrderRepo encapsulates queries on the orders table.  Every write is a
// single statement; concurrent admin edits are last-write-wins.
type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, product_id, seller_id, customer_name, customer_email, shipping_address,
	total_amount_kr, commission_kr, payment_method, payment_status, status, promo_code,
	tracking_number, tracking_url, crypto_currency, crypto_amount, payment_address,
	nowpayments_id, created_at, updated_at`

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		o                                       model.Order
		promo, trackNo, trackURL, cur, amt, adr sql.NullString
		npID                                    sql.NullString
	)
	err := row.Scan(&o.ID, &o.ProductID, &o.SellerID, &o.CustomerName, &o.CustomerEmail, &o.ShippingAddress,
		&o.TotalAmountKr, &o.CommissionKr, &o.PaymentMethod, &o.PaymentStatus, &o.Status, &promo,
		&trackNo, &trackURL, &cur, &amt, &adr, &npID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	o.PromoCode = stringPtr(promo)
	o.TrackingNumber = stringPtr(trackNo)
	o.TrackingURL = stringPtr(trackURL)
	o.CryptoCurrency = stringPtr(cur)
	o.CryptoAmount = stringPtr(amt)
	o.PaymentAddress = stringPtr(adr)
	o.NOWPaymentsID = stringPtr(npID)
	return o, nil
}

// Create inserts an order.  Unknown product or seller ids yield ErrReference.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		o.ID, o.ProductID, o.SellerID, o.CustomerName, o.CustomerEmail, o.ShippingAddress,
		o.TotalAmountKr, o.CommissionKr, o.PaymentMethod, o.PaymentStatus, o.Status, nullString(o.PromoCode),
		nullString(o.TrackingNumber), nullString(o.TrackingURL), nullString(o.CryptoCurrency),
		nullString(o.CryptoAmount), nullString(o.PaymentAddress), nullString(o.NOWPaymentsID),
		o.CreatedAt, o.UpdatedAt)
	return translate(err)
}

// GetByID fetches an order.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	return o, translate(err)
}

// GetByIDAndEmail fetches an order only when both the id and the customer
// email match exactly.  It backs anonymous order tracking, so there is no
// case folding or partial matching.
func (r *OrderRepo) GetByIDAndEmail(ctx context.Context, id, email string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ? AND BINARY customer_email = ?", id, email))
	return o, translate(err)
}

// List returns orders newest first.
func (r *OrderRepo) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	q := "SELECT " + orderColumns + " FROM orders"
	var args []any
	if f.Status != "" {
		q += " WHERE status = ?"
		args = append(args, f.Status)
	}
	q += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update overwrites every non-nil field of the patch in one statement.
// ErrNotFound when the id is unknown.
func (r *OrderRepo) Update(ctx context.Context, id string, p model.OrderPatch) error {
	var set setList
	if p.Status != nil {
		set.add("status", *p.Status)
	}
	if p.PaymentStatus != nil {
		set.add("payment_status", *p.PaymentStatus)
	}
	if p.PaymentMethod != nil {
		set.add("payment_method", *p.PaymentMethod)
	}
	if p.TrackingNumber != nil {
		set.add("tracking_number", *p.TrackingNumber)
	}
	if p.TrackingURL != nil {
		set.add("tracking_url", *p.TrackingURL)
	}
	if p.CryptoCurrency != nil {
		set.add("crypto_currency", *p.CryptoCurrency)
	}
	if p.CryptoAmount != nil {
		set.add("crypto_amount", *p.CryptoAmount)
	}
	if p.PaymentAddress != nil {
		set.add("payment_address", *p.PaymentAddress)
	}
	if p.NOWPaymentsID != nil {
		set.add("nowpayments_id", *p.NOWPaymentsID)
	}
	if set.empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET "+strings.Join(set.cols, ", ")+" WHERE id = ?",
		append(set.args, id)...)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// Stats aggregates order counts per status.  Revenue and commission only
// count orders that were paid and not undone.
func (r *OrderRepo) Stats(ctx context.Context) (model.OrderStats, error) {
	st := model.OrderStats{ByStatus: map[model.OrderStatus]int{}}
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_amount_kr), 0), COALESCE(SUM(commission_kr), 0)
		 FROM orders GROUP BY status`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status     model.OrderStatus
			n          int
			total, com decimal.Decimal
		)
		if err := rows.Scan(&status, &n, &total, &com); err != nil {
			return st, err
		}
		st.ByStatus[status] = n
		st.TotalOrders += n
		switch status {
		case model.StatusConfirmed, model.StatusShipped, model.StatusCompleted:
			st.RevenueKr = st.RevenueKr.Add(total)
			st.CommissionKr = st.CommissionKr.Add(com)
		}
	}
	return st, rows.Err()
}
