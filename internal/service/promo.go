package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
)

// PromoStore is satisfied by repository.PromoRepo.
type PromoStore interface {
	List(ctx context.Context) ([]model.PromoCode, error)
	GetByCode(ctx context.Context, code string) (model.PromoCode, error)
	GetByID(ctx context.Context, id string) (model.PromoCode, error)
	Create(ctx context.Context, p *model.PromoCode) error
	Update(ctx context.Context, p *model.PromoCode) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) (bool, error)
	ReleaseUsage(ctx context.Context, id string) error
}

// PromoValidator checks promo eligibility at checkout and manages codes
// for admins.
type PromoValidator struct {
	store PromoStore
	now   func() time.Time
}

func NewPromoValidator(store PromoStore) *PromoValidator {
	return &PromoValidator{store: store, now: time.Now}
}

// NormalizeCode is the canonical form codes are stored and looked up in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate looks a code up and checks it can be applied right now.  It
// never changes usage; see Redeem.
func (v *PromoValidator) Validate(ctx context.Context, code string) (model.PromoCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return model.PromoCode{}, ErrPromoNotFound
	}
	p, err := v.store.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PromoCode{}, ErrPromoNotFound
	}
	if err != nil {
		return model.PromoCode{}, err
	}
	if err := eligible(p, v.now()); err != nil {
		return model.PromoCode{}, err
	}
	return p, nil
}

// eligible applies the checks in a fixed order; the first failure wins.
func eligible(p model.PromoCode, now time.Time) error {
	switch {
	case !p.IsActive:
		return ErrPromoInactive
	case p.MaxUsage != nil && p.UsageCount >= *p.MaxUsage:
		return ErrPromoUsageExceeded
	case p.ValidUntil != nil && now.After(*p.ValidUntil):
		return ErrPromoExpired
	case p.ValidFrom != nil && now.Before(*p.ValidFrom):
		return ErrPromoNotYetValid
	}
	return nil
}

// Redeem validates a code and consumes one use of it.  The increment is a
// single guarded UPDATE, so when several checkouts race for the last use
// exactly one of them gets it and the rest see ErrPromoUsageExceeded.
func (v *PromoValidator) Redeem(ctx context.Context, code string) (model.PromoCode, error) {
	p, err := v.Validate(ctx, code)
	if err != nil {
		return model.PromoCode{}, err
	}
	ok, err := v.store.IncrementUsage(ctx, p.ID)
	if err != nil {
		return model.PromoCode{}, err
	}
	if !ok {
		return model.PromoCode{}, ErrPromoUsageExceeded
	}
	p.UsageCount++
	return p, nil
}

// Release returns a use consumed by Redeem.
func (v *PromoValidator) Release(ctx context.Context, id string) error {
	return v.store.ReleaseUsage(ctx, id)
}

// PromoInput is what admins send to create or replace a code.
type PromoInput struct {
	Code        string
	DiscountKr  decimal.Decimal
	Description string
	MaxUsage    *int
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	IsActive    bool
}

func (in PromoInput) validate() error {
	var verr ValidationError
	if NormalizeCode(in.Code) == "" {
		verr.add("code", "required")
	}
	if !in.DiscountKr.IsPositive() {
		verr.add("discountKr", "must be greater than zero")
	}
	if in.MaxUsage != nil && *in.MaxUsage < 0 {
		verr.add("maxUsage", "must not be negative")
	}
	if in.ValidFrom != nil && in.ValidUntil != nil && in.ValidUntil.Before(*in.ValidFrom) {
		verr.add("validUntil", "must not be before validFrom")
	}
	return verr.orNil()
}

// List returns all codes for the admin table.
func (v *PromoValidator) List(ctx context.Context) ([]model.PromoCode, error) {
	return v.store.List(ctx)
}

// Create stores a new code with zero uses.
func (v *PromoValidator) Create(ctx context.Context, in PromoInput) (model.PromoCode, error) {
	if err := in.validate(); err != nil {
		return model.PromoCode{}, err
	}
	p := model.PromoCode{
		ID:          uuid.NewString(),
		Code:        NormalizeCode(in.Code),
		DiscountKr:  in.DiscountKr,
		Description: strings.TrimSpace(in.Description),
		MaxUsage:    in.MaxUsage,
		ValidFrom:   in.ValidFrom,
		ValidUntil:  in.ValidUntil,
		IsActive:    in.IsActive,
		CreatedAt:   v.now().UTC(),
	}
	if err := v.store.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.PromoCode{}, ErrPromoCodeExists
		}
		return model.PromoCode{}, err
	}
	return p, nil
}

// Update replaces the editable fields of a code.  Its usage count is kept.
func (v *PromoValidator) Update(ctx context.Context, id string, in PromoInput) (model.PromoCode, error) {
	if err := in.validate(); err != nil {
		return model.PromoCode{}, err
	}
	p := model.PromoCode{
		ID:          id,
		Code:        NormalizeCode(in.Code),
		DiscountKr:  in.DiscountKr,
		Description: strings.TrimSpace(in.Description),
		MaxUsage:    in.MaxUsage,
		ValidFrom:   in.ValidFrom,
		ValidUntil:  in.ValidUntil,
		IsActive:    in.IsActive,
	}
	switch err := v.store.Update(ctx, &p); {
	case errors.Is(err, repository.ErrNotFound):
		return model.PromoCode{}, ErrPromoNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return model.PromoCode{}, ErrPromoCodeExists
	case err != nil:
		return model.PromoCode{}, err
	}
	return v.store.GetByID(ctx, id)
}

// Delete removes a code.
func (v *PromoValidator) Delete(ctx context.Context, id string) error {
	err := v.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPromoNotFound
	}
	return err
}
