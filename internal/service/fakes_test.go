package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type memAdmins struct{ byName map[string]model.Admin }

func (m *memAdmins) GetByUsername(_ context.Context, username string) (model.Admin, error) {
	a, ok := m.byName[username]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return a, nil
}

// memSessions mirrors SessionRepo, reading the admin's active flag live
// from admins like the SQL join does.
type memSessions struct {
	mu     sync.Mutex
	rows   map[string]model.AdminSession
	admins *memAdmins
}

func newMemSessions(admins *memAdmins) *memSessions {
	return &memSessions{rows: map[string]model.AdminSession{}, admins: admins}
}

func (m *memSessions) Create(_ context.Context, s model.AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.rows[s.TokenHash]; dup {
		return repository.ErrDuplicate
	}
	m.rows[s.TokenHash] = s
	return nil
}

func (m *memSessions) GetValidSession(_ context.Context, hash string, now time.Time) (model.SessionAdmin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[hash]
	if !ok || !s.ExpiresAt.After(now) {
		return model.SessionAdmin{}, repository.ErrNotFound
	}
	for _, a := range m.admins.byName {
		if a.ID == s.AdminID {
			return model.SessionAdmin{Admin: a.Identity(), IsActive: a.IsActive, ExpiresAt: s.ExpiresAt}, nil
		}
	}
	return model.SessionAdmin{}, repository.ErrNotFound
}

func (m *memSessions) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, hash)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.rows {
		if !s.ExpiresAt.After(now) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memPromos guards IncrementUsage with a mutex the way the conditional
// UPDATE is atomic in MySQL.
type memPromos struct {
	mu   sync.Mutex
	rows map[string]model.PromoCode
}

func newMemPromos(codes ...model.PromoCode) *memPromos {
	m := &memPromos{rows: map[string]model.PromoCode{}}
	for _, p := range codes {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memPromos) List(context.Context) ([]model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.PromoCode{}
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memPromos) GetByCode(_ context.Context, code string) (model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Code == code {
			return p, nil
		}
	}
	return model.PromoCode{}, repository.ErrNotFound
}

func (m *memPromos) GetByID(_ context.Context, id string) (model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return model.PromoCode{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPromos) Create(_ context.Context, p *model.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.rows {
		if q.Code == p.Code {
			return repository.ErrDuplicate
		}
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *memPromos) Update(_ context.Context, p *model.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, q := range m.rows {
		if q.Code == p.Code && q.ID != p.ID {
			return repository.ErrDuplicate
		}
	}
	next := *p
	next.UsageCount = cur.UsageCount
	next.CreatedAt = cur.CreatedAt
	m.rows[p.ID] = next
	return nil
}

func (m *memPromos) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memPromos) IncrementUsage(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || !p.IsActive || (p.MaxUsage != nil && p.UsageCount >= *p.MaxUsage) {
		return false, nil
	}
	p.UsageCount++
	m.rows[id] = p
	return true, nil
}

func (m *memPromos) ReleaseUsage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok && p.UsageCount > 0 {
		p.UsageCount--
		m.rows[id] = p
	}
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]model.Order
	// createErr, when set, fails every insert.
	createErr error
}

func newMemOrders() *memOrders { return &memOrders{rows: map[string]model.Order{}} }

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[o.ID] = *o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) GetByIDAndEmail(ctx context.Context, id, email string) (model.Order, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil || o.CustomerEmail != email {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) List(_ context.Context, f model.OrderFilter) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.rows {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) Update(_ context.Context, id string, p model.OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.TrackingNumber != nil {
		o.TrackingNumber = p.TrackingNumber
	}
	if p.TrackingURL != nil {
		o.TrackingURL = p.TrackingURL
	}
	if p.CryptoCurrency != nil {
		o.CryptoCurrency = p.CryptoCurrency
	}
	if p.CryptoAmount != nil {
		o.CryptoAmount = p.CryptoAmount
	}
	if p.PaymentAddress != nil {
		o.PaymentAddress = p.PaymentAddress
	}
	if p.NOWPaymentsID != nil {
		o.NOWPaymentsID = p.NOWPaymentsID
	}
	m.rows[id] = o
	return nil
}

func (m *memOrders) Stats(context.Context) (model.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.OrderStats{ByStatus: map[model.OrderStatus]int{}}
	for _, o := range m.rows {
		st.ByStatus[o.Status]++
		st.TotalOrders++
	}
	return st, nil
}

type memProducts map[string]model.Product

func (m memProducts) GetByID(_ context.Context, id string) (model.Product, error) {
	p, ok := m[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

type memSellers map[string]model.Seller

func (m memSellers) GetByID(_ context.Context, id string) (model.Seller, error) {
	s, ok := m[id]
	if !ok {
		return model.Seller{}, repository.ErrNotFound
	}
	return s, nil
}

type chanNotifier struct {
	ch  chan model.Order
	err error
}

func (n *chanNotifier) OrderPlaced(_ context.Context, o model.Order) error {
	n.ch <- o
	return n.err
}
