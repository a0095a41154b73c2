// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into customer mail.
package queue

// OrderPlacedEvent is published after a checkout is stored.  It carries
// everything the confirmation mail needs so the consumer never queries
// the primary database.
type OrderPlacedEvent struct {
	EventID         string `json:"event_id"`
	OrderID         string `json:"order_id"`
	ProductID       string `json:"product_id"`
	SellerID        string `json:"seller_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	ShippingAddress string `json:"shipping_address"`
	TotalAmountKr   string `json:"total_amount_kr"`
	PaymentMethod   string `json:"payment_method"`
	PromoCode       string `json:"promo_code,omitempty"`
	TrackingURL     string `json:"tracking_url,omitempty"`
	PlacedAt        string `json:"placed_at"`
}
