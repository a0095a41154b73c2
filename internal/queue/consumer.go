package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Mailer delivers the order confirmation.  Real delivery (SMTP, SendGrid)
// lives outside this service.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, ev OrderPlacedEvent) error
}

// LogMailer writes confirmations to the log instead of sending them.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) SendOrderConfirmation(_ context.Context, ev OrderPlacedEvent) error {
	m.Log.Info("order confirmation",
		"order_id", ev.OrderID,
		"to", ev.CustomerEmail,
		"total_kr", ev.TotalAmountKr,
		"payment_method", ev.PaymentMethod,
		"has_tracking_link", ev.TrackingURL != "",
	)
	return nil
}

// ConsumerConfig names the broker and queue to read from.
type ConsumerConfig struct {
	URL      string
	Queue    string
	Prefetch int
}

// StartOrderConsumer connects to RabbitMQ, declares the durable queue and
// hands every OrderPlacedEvent to the mailer.  Connection loss triggers a
// reconnect with exponential backoff capped at 30s.  It returns only when
// ctx is cancelled.
func StartOrderConsumer(ctx context.Context, cfg ConsumerConfig, mailer Mailer, log *slog.Logger) error {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 50
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Warn("order-consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, mailer, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("order-consumer: consume loop ended, reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, mailer Mailer, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		log.Warn("order-consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info("order-consumer: consuming", "queue", cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(ctx, d.Body, mailer); err != nil {
				log.Error("order-consumer: handle message failed", "err", err)
				_ = d.Nack(false, false) // no requeue; a poison message would loop forever
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one delivery and mails it.
func HandleMessage(ctx context.Context, body []byte, mailer Mailer) error {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.OrderID == "" || ev.CustomerEmail == "" {
		return errors.New("event missing order id or customer email")
	}
	return mailer.SendOrderConfirmation(ctx, ev)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
