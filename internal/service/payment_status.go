package service

import (
	"strings"

	"github.com/iliyamo/storefront-api/internal/model"
)

// MapPaymentStatus derives the order status implied by a payment
// provider status.  It is total: anything it does not recognize keeps the
// order pending.
func MapPaymentStatus(provider string) model.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "finished":
		return model.StatusConfirmed
	case "failed", "expired":
		return model.StatusCancelled
	default:
		return model.StatusPending
	}
}
