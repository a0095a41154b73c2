package service

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/utils"
)

func TestOrderPlacedEventCarriesTrackingLink(t *testing.T) {
	promo := "TEN"
	o := model.Order{
		ID:            "o1",
		CustomerName:  "Kari",
		CustomerEmail: "kari@example.com",
		TotalAmountKr: kr("440"),
		PaymentMethod: model.MethodStripe,
		PromoCode:     &promo,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	p := &QueuePublisher{TrackingSecret: "s", TrackingTTL: time.Hour, PublicBaseURL: "https://shop.example/"}

	ev, err := p.event(o)
	require.NoError(t, err)
	require.Equal(t, "o1", ev.OrderID)
	require.Equal(t, "440.00", ev.TotalAmountKr)
	require.Equal(t, "TEN", ev.PromoCode)
	require.Equal(t, "2026-03-01T10:00:00Z", ev.PlacedAt)
	require.True(t, strings.HasPrefix(ev.TrackingURL, "https://shop.example/track-order?token="))

	u, err := url.Parse(ev.TrackingURL)
	require.NoError(t, err)
	id, email, err := utils.ParseTrackingToken("s", u.Query().Get("token"))
	require.NoError(t, err)
	require.Equal(t, "o1", id)
	require.Equal(t, "kari@example.com", email)
}
