package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/utils"
)

type orderFixture struct {
	m        *OrderManager
	orders   *memOrders
	promos   *memPromos
	notified chan model.Order
}

func newOrderFixture(strict bool) *orderFixture {
	orders := newMemOrders()
	promos := newMemPromos(model.PromoCode{ID: "p1", Code: "TEN", DiscountKr: kr("10"), IsActive: true, MaxUsage: intPtr(1)})
	notified := make(chan model.Order, 4)
	m := NewOrderManager(OrderDeps{
		Orders:            orders,
		Products:          memProducts{"prod1": {ID: "prod1", SellerID: "s1"}},
		Sellers:           memSellers{"s1": {ID: "s1"}, "s2": {ID: "s2"}},
		Promos:            NewPromoValidator(promos),
		Notifier:          &chanNotifier{ch: notified, err: errors.New("broker down")},
		Log:               discardLogger(),
		TrackingSecret:    "track-secret",
		StrictTransitions: strict,
	})
	return &orderFixture{m: m, orders: orders, promos: promos, notified: notified}
}

func validNewOrder() NewOrder {
	return NewOrder{
		ProductID:       "prod1",
		SellerID:        "s1",
		CustomerName:    "Kari Nordmann",
		CustomerEmail:   "kari@example.com",
		ShippingAddress: "Storgata 1, 0155 Oslo",
		TotalAmountKr:   kr("450.00"),
		CommissionKr:    kr("202.50"),
		PaymentMethod:   model.MethodRevolut,
	}
}

func TestCreateOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(false)

	in := validNewOrder()
	created, err := f.m.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := f.m.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, in.ProductID, got.ProductID)
	require.Equal(t, in.SellerID, got.SellerID)
	require.Equal(t, in.CustomerName, got.CustomerName)
	require.Equal(t, in.CustomerEmail, got.CustomerEmail)
	require.Equal(t, in.ShippingAddress, got.ShippingAddress)
	require.True(t, in.TotalAmountKr.Equal(got.TotalAmountKr))
	require.True(t, in.CommissionKr.Equal(got.CommissionKr))
	require.Equal(t, in.PaymentMethod, got.PaymentMethod)
	require.Equal(t, model.StatusPending, got.Status)
	require.Equal(t, model.PaymentPending, got.PaymentStatus)
	require.Nil(t, got.PromoCode)
}

func TestCreateOrderSurvivesNotificationFailure(t *testing.T) {
	f := newOrderFixture(false)
	created, err := f.m.CreateOrder(context.Background(), validNewOrder())
	require.NoError(t, err)

	select {
	case o := <-f.notified:
		require.Equal(t, created.ID, o.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	in := validNewOrder()
	in.CustomerEmail = ""
	in.ShippingAddress = "  "
	in.PaymentMethod = "paypal"
	_, err := f.m.CreateOrder(ctx, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "customerEmail")
	require.Contains(t, verr.Fields, "shippingAddress")
	require.Contains(t, verr.Fields, "paymentMethod")

	in = validNewOrder()
	in.ProductID = "ghost"
	_, err = f.m.CreateOrder(ctx, in)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "unknown product", verr.Fields["productId"])

	in = validNewOrder()
	in.SellerID = "s2"
	_, err = f.m.CreateOrder(ctx, in)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "product does not belong to seller", verr.Fields["sellerId"])

	require.Empty(t, f.orders.rows)
}

func TestCreateOrderRedeemsPromo(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	in := validNewOrder()
	in.PromoCode = "ten"
	o, err := f.m.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, o.PromoCode)
	require.Equal(t, "TEN", *o.PromoCode)

	p, _ := f.promos.GetByID(ctx, "p1")
	require.Equal(t, 1, p.UsageCount)

	_, err = f.m.CreateOrder(ctx, in)
	require.ErrorIs(t, err, ErrPromoUsageExceeded)
	require.Len(t, f.orders.rows, 1)
}

func TestFailedInsertGivesPromoUseBack(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	f.orders.createErr = errors.New("connection reset")

	in := validNewOrder()
	in.PromoCode = "TEN"
	_, err := f.m.CreateOrder(ctx, in)
	require.Error(t, err)
	require.Empty(t, f.orders.rows)

	p, _ := f.promos.GetByID(ctx, "p1")
	require.Equal(t, 0, p.UsageCount)
	_, err = f.m.promos.Validate(ctx, "TEN")
	require.NoError(t, err)

	f.orders.createErr = nil
	o, err := f.m.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "TEN", *o.PromoCode)
}

func TestUnknownPromoAtCheckoutIsFieldError(t *testing.T) {
	f := newOrderFixture(false)
	in := validNewOrder()
	in.PromoCode = "NOPE"
	_, err := f.m.CreateOrder(context.Background(), in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "unknown promo code", verr.Fields["promoCode"])
	require.NotErrorIs(t, err, ErrPromoNotFound)
}

func TestCreateOrderRejectsAmountsTheColumnCannotHold(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()

	cases := map[string]struct {
		total, field, msg string
	}{
		"three decimals":  {"10.005", "totalAmountKr", "must have at most 2 decimal places"},
		"fourteen digits": {"12345678901234", "totalAmountKr", "too large"},
		"just over max":   {"10000000000", "totalAmountKr", "too large"},
	}
	for name, tc := range cases {
		in := validNewOrder()
		in.TotalAmountKr = kr(tc.total)
		in.CommissionKr = kr("1")
		_, err := f.m.CreateOrder(ctx, in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
		require.Equal(t, tc.msg, verr.Fields[tc.field], name)
	}
	require.Empty(t, f.orders.rows)

	in := validNewOrder()
	in.TotalAmountKr = kr("9999999999.99")
	in.CommissionKr = kr("10.500")
	o, err := f.m.CreateOrder(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "10.5", o.CommissionKr.String())
}

func TestUpdateOrderIsUnconstrainedByDefault(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	cancelled := model.StatusCancelled
	_, err = f.m.UpdateOrder(ctx, o.ID, model.OrderPatch{Status: &cancelled})
	require.NoError(t, err)

	pending := model.StatusPending
	tn := "LA123456789NO"
	got, err := f.m.UpdateOrder(ctx, o.ID, model.OrderPatch{Status: &pending, TrackingNumber: &tn})
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, got.Status)
	require.Equal(t, tn, *got.TrackingNumber)

	_, err = f.m.UpdateOrder(ctx, "missing", model.OrderPatch{Status: &pending})
	require.ErrorIs(t, err, ErrOrderNotFound)

	bogus := model.OrderStatus("lost")
	_, err = f.m.UpdateOrder(ctx, o.ID, model.OrderPatch{Status: &bogus})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateOrderStrictTransitions(t *testing.T) {
	f := newOrderFixture(true)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	shipped := model.StatusShipped
	_, err = f.m.UpdateOrder(ctx, o.ID, model.OrderPatch{Status: &shipped})
	require.ErrorIs(t, err, ErrInvalidTransition)

	confirmed := model.StatusConfirmed
	got, err := f.m.UpdateOrder(ctx, o.ID, model.OrderPatch{Status: &confirmed})
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, got.Status)
}

func TestGetOrderByIDAndEmailExactMatch(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	got, err := f.m.GetOrderByIDAndEmail(ctx, o.ID, "kari@example.com")
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)

	_, err = f.m.GetOrderByIDAndEmail(ctx, o.ID, "wrong@example.com")
	require.ErrorIs(t, err, ErrOrderNotFound)
	_, err = f.m.GetOrderByIDAndEmail(ctx, o.ID, "")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTrackByToken(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	tok, _, err := utils.NewTrackingToken("track-secret", o.ID, o.CustomerEmail, time.Hour)
	require.NoError(t, err)
	got, err := f.m.TrackByToken(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, o.ID, got.ID)

	forged, _, err := utils.NewTrackingToken("other-secret", o.ID, o.CustomerEmail, time.Hour)
	require.NoError(t, err)
	_, err = f.m.TrackByToken(ctx, forged)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMapPaymentStatus(t *testing.T) {
	cases := map[string]model.OrderStatus{
		"finished":       model.StatusConfirmed,
		"FINISHED":       model.StatusConfirmed,
		"failed":         model.StatusCancelled,
		"expired":        model.StatusCancelled,
		"waiting":        model.StatusPending,
		"confirming":     model.StatusPending,
		"partially_paid": model.StatusPending,
		"":               model.StatusPending,
		"???":            model.StatusPending,
	}
	for in, want := range cases {
		require.Equal(t, want, MapPaymentStatus(in), in)
	}
}

func TestApplyPaymentUpdate(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	got, err := f.m.ApplyPaymentUpdate(ctx, PaymentUpdate{OrderID: o.ID, PaymentID: "p1", ProviderStatus: "finished"})
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatus("finished"), got.PaymentStatus)
	require.Equal(t, model.StatusConfirmed, got.Status)
	require.Equal(t, "p1", *got.NOWPaymentsID)

	_, err = f.m.ApplyPaymentUpdate(ctx, PaymentUpdate{OrderID: "missing", ProviderStatus: "finished"})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestApplyPaymentUpdateStrictKeepsStatus(t *testing.T) {
	f := newOrderFixture(true)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	_, err = f.m.ApplyPaymentUpdate(ctx, PaymentUpdate{OrderID: o.ID, ProviderStatus: "finished"})
	require.NoError(t, err)

	got, err := f.m.ApplyPaymentUpdate(ctx, PaymentUpdate{OrderID: o.ID, ProviderStatus: "waiting"})
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, got.Status)
	require.Equal(t, model.PaymentStatus("waiting"), got.PaymentStatus)
}

func TestAttachCryptoPayment(t *testing.T) {
	f := newOrderFixture(false)
	ctx := context.Background()
	o, err := f.m.CreateOrder(ctx, validNewOrder())
	require.NoError(t, err)

	got, err := f.m.AttachCryptoPayment(ctx, o.ID, CryptoPayment{PaymentID: "np-9", Currency: "btc", Amount: "0.0012", Address: "bc1qxyz"})
	require.NoError(t, err)
	require.Equal(t, model.MethodCrypto, got.PaymentMethod)
	require.Equal(t, "btc", *got.CryptoCurrency)
	require.Equal(t, "bc1qxyz", *got.PaymentAddress)
	require.Equal(t, "np-9", *got.NOWPaymentsID)
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(false)
	_, err := f.m.ListOrders(context.Background(), model.OrderFilter{Status: "lost"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}
