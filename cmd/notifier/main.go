// Command notifier consumes order.placed events and sends the customer
// confirmation.  It runs next to the API so a slow mail path never blocks
// checkout.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/storefront-api/internal/config"
	"github.com/iliyamo/storefront-api/internal/logging"
	"github.com/iliyamo/storefront-api/internal/queue"
)

func main() {
	_ = godotenv.Load()

	nc := config.LoadNotifier()
	logger, err := logging.New(logging.Options{Level: nc.LogLevel, JSON: nc.LogJSON, DefaultSlog: true})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("order consumer starting", "queue", nc.OrderQueue)
	err = queue.StartOrderConsumer(ctx, queue.ConsumerConfig{
		URL:      nc.RabbitMQURL,
		Queue:    nc.OrderQueue,
		Prefetch: nc.Prefetch,
	}, queue.LogMailer{Log: logger}, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("order consumer stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("order consumer stopped")
}
