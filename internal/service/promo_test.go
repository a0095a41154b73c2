package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-api/internal/model"
)

func intPtr(n int) *int             { return &n }
func timeAt(t time.Time) *time.Time { return &t }
func kr(s string) decimal.Decimal   { return decimal.RequireFromString(s) }

func TestValidateCheckOrder(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		p    model.PromoCode
		want error
	}{
		{"ok", model.PromoCode{IsActive: true}, nil},
		{"ok at cap minus one", model.PromoCode{IsActive: true, MaxUsage: intPtr(3), UsageCount: 2}, nil},
		{"ok on last valid instant", model.PromoCode{IsActive: true, ValidUntil: timeAt(now)}, nil},
		{"inactive", model.PromoCode{IsActive: false}, ErrPromoInactive},
		{"usage", model.PromoCode{IsActive: true, MaxUsage: intPtr(3), UsageCount: 3}, ErrPromoUsageExceeded},
		{"zero cap", model.PromoCode{IsActive: true, MaxUsage: intPtr(0)}, ErrPromoUsageExceeded},
		{"expired", model.PromoCode{IsActive: true, ValidUntil: timeAt(now.Add(-time.Second))}, ErrPromoExpired},
		{"not yet", model.PromoCode{IsActive: true, ValidFrom: timeAt(now.Add(time.Hour))}, ErrPromoNotYetValid},
		{"inactive wins over usage", model.PromoCode{IsActive: false, MaxUsage: intPtr(1), UsageCount: 1}, ErrPromoInactive},
		{"usage wins over expiry", model.PromoCode{IsActive: true, MaxUsage: intPtr(1), UsageCount: 1, ValidUntil: timeAt(now.Add(-time.Hour))}, ErrPromoUsageExceeded},
		{"expiry wins over window start", model.PromoCode{IsActive: true, ValidFrom: timeAt(now.Add(time.Hour)), ValidUntil: timeAt(now.Add(-time.Hour))}, ErrPromoExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.p.ID, tc.p.Code = "p1", "SUMMER"
			v := NewPromoValidator(newMemPromos(tc.p))
			v.now = func() time.Time { return now }

			got, err := v.Validate(context.Background(), "  summer ")
			if tc.want == nil {
				require.NoError(t, err)
				require.Equal(t, "p1", got.ID)
				return
			}
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsPromoRejection(err))
		})
	}
}

func TestValidateUnknownCode(t *testing.T) {
	v := NewPromoValidator(newMemPromos())
	_, err := v.Validate(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrPromoNotFound)
	_, err = v.Validate(context.Background(), "   ")
	require.ErrorIs(t, err, ErrPromoNotFound)
}

func TestValidateDoesNotConsumeUsage(t *testing.T) {
	store := newMemPromos(model.PromoCode{ID: "p1", Code: "ONE", IsActive: true, MaxUsage: intPtr(1)})
	v := NewPromoValidator(store)
	for i := 0; i < 3; i++ {
		_, err := v.Validate(context.Background(), "one")
		require.NoError(t, err)
	}
	p, _ := store.GetByID(context.Background(), "p1")
	require.Zero(t, p.UsageCount)
}

func TestConcurrentRedeemLastUse(t *testing.T) {
	const limit, racers = 5, 32
	store := newMemPromos(model.PromoCode{ID: "p1", Code: "LAST", IsActive: true, MaxUsage: intPtr(limit), UsageCount: limit - 1})
	v := NewPromoValidator(store)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := v.Redeem(context.Background(), "last")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			if err == ErrPromoUsageExceeded {
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, racers-1, rejected)
	p, _ := store.GetByID(context.Background(), "p1")
	require.Equal(t, limit, p.UsageCount)
}

func TestPromoAdminCRUD(t *testing.T) {
	ctx := context.Background()
	v := NewPromoValidator(newMemPromos())

	created, err := v.Create(ctx, PromoInput{Code: " welcome10 ", DiscountKr: kr("10"), Description: "first order", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, "WELCOME10", created.Code)
	require.Zero(t, created.UsageCount)

	_, err = v.Create(ctx, PromoInput{Code: "Welcome10", DiscountKr: kr("5"), IsActive: true})
	require.ErrorIs(t, err, ErrPromoCodeExists)

	_, err = v.Redeem(ctx, "welcome10")
	require.NoError(t, err)

	updated, err := v.Update(ctx, created.ID, PromoInput{Code: "WELCOME15", DiscountKr: kr("15"), MaxUsage: intPtr(10), IsActive: false})
	require.NoError(t, err)
	require.Equal(t, "WELCOME15", updated.Code)
	require.Equal(t, 1, updated.UsageCount, "replacing a code keeps its usage")
	require.False(t, updated.IsActive)

	_, err = v.Update(ctx, "missing", PromoInput{Code: "X", DiscountKr: kr("1")})
	require.ErrorIs(t, err, ErrPromoNotFound)

	list, err := v.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, v.Delete(ctx, created.ID))
	require.ErrorIs(t, v.Delete(ctx, created.ID), ErrPromoNotFound)
}

func TestPromoInputValidation(t *testing.T) {
	v := NewPromoValidator(newMemPromos())
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := v.Create(context.Background(), PromoInput{
		Code:       " ",
		DiscountKr: kr("0"),
		MaxUsage:   intPtr(-1),
		ValidFrom:  &from,
		ValidUntil: timeAt(from.Add(-time.Hour)),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "code")
	require.Contains(t, verr.Fields, "discountKr")
	require.Contains(t, verr.Fields, "maxUsage")
	require.Contains(t, verr.Fields, "validUntil")
}
