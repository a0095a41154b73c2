package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/queue"
	"github.com/iliyamo/storefront-api/internal/utils"
)

// QueuePublisher publishes order events to RabbitMQ.  Each publish dials,
// declares the durable queue and closes again; checkout volume is low
// enough that a long-lived channel is not worth its reconnect handling.
type QueuePublisher struct {
	URL            string
	Queue          string
	TrackingSecret string
	TrackingTTL    time.Duration
	PublicBaseURL  string
}

// OrderPlaced implements Notifier.
func (p *QueuePublisher) OrderPlaced(ctx context.Context, o model.Order) error {
	ev, err := p.event(o)
	if err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.publish(ctx, body)
}

func (p *QueuePublisher) event(o model.Order) (queue.OrderPlacedEvent, error) {
	ev := queue.OrderPlacedEvent{
		EventID:         uuid.NewString(),
		OrderID:         o.ID,
		ProductID:       o.ProductID,
		SellerID:        o.SellerID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		ShippingAddress: o.ShippingAddress,
		TotalAmountKr:   o.TotalAmountKr.StringFixed(2),
		PaymentMethod:   string(o.PaymentMethod),
		PlacedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.PromoCode != nil {
		ev.PromoCode = *o.PromoCode
	}
	if p.TrackingSecret != "" {
		tok, _, err := utils.NewTrackingToken(p.TrackingSecret, o.ID, o.CustomerEmail, p.TrackingTTL)
		if err != nil {
			return ev, err
		}
		ev.TrackingURL = TrackingURL(p.PublicBaseURL, tok)
	}
	return ev, nil
}

// TrackingURL builds the storefront link that opens a tracking token.
func TrackingURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/track-order?token=" + url.QueryEscape(token)
}

func (p *QueuePublisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
