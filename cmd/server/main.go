package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/config"
	"github.com/iliyamo/storefront-api/internal/database"
	"github.com/iliyamo/storefront-api/internal/handler"
	"github.com/iliyamo/storefront-api/internal/logging"
	"github.com/iliyamo/storefront-api/internal/middleware"
	"github.com/iliyamo/storefront-api/internal/payments"
	"github.com/iliyamo/storefront-api/internal/repository"
	"github.com/iliyamo/storefront-api/internal/router"
	"github.com/iliyamo/storefront-api/internal/service"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine outside local dev

	cfg := config.Load()
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, DefaultSlog: true})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	db, err := database.Open(logger, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unreachable, rate limiting and catalog cache disabled")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	loginLimiter := middleware.NewTokenBucket(config.LoadLoginRateLimitConfig(), rdb, logger)
	cache := middleware.NewCatalogCache(config.LoadCacheConfig(), rdb, logger)

	admins := repository.NewAdminRepo(db)
	sessions := repository.NewSessionRepo(db)
	sellers := repository.NewSellerRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	promoRepo := repository.NewPromoRepo(db)

	auth := service.NewAuthenticator(admins, sessions, cfg.SessionTTL, logger)
	promos := service.NewPromoValidator(promoRepo)
	orderMgr := service.NewOrderManager(service.OrderDeps{
		Orders:   orders,
		Products: products,
		Sellers:  sellers,
		Promos:   promos,
		Notifier: &service.QueuePublisher{
			URL:            cfg.RabbitMQURL,
			Queue:          cfg.OrderQueue,
			TrackingSecret: cfg.TrackingSecret,
			TrackingTTL:    cfg.TrackingTTL,
			PublicBaseURL:  cfg.PublicBaseURL,
		},
		Log:               logger,
		TrackingSecret:    cfg.TrackingSecret,
		StrictTransitions: cfg.StrictOrderTransitions,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	auth.StartSweeper(ctx, cfg.SessionSweepInterval)

	npClient := payments.NewClient(cfg.NOWPaymentsBaseURL, cfg.NOWPaymentsAPIKey)
	if !npClient.Configured() {
		logger.Warn("NOWPAYMENTS_API_KEY not set, crypto payment endpoints will answer 503")
	}
	if cfg.NOWPaymentsIPNSecret == "" {
		logger.Warn("NOWPAYMENTS_IPN_SECRET not set, payment webhook is closed")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestLog(logger))

	router.RegisterRoutes(e, router.Deps{
		DB:             db,
		Auth:           handler.NewAuthHandler(auth, logger),
		Catalog:        handler.NewCatalogHandler(sellers, products, cache.Purge, logger),
		Orders:         handler.NewOrderHandler(orderMgr, logger),
		Promos:         handler.NewPromoHandler(promos, logger),
		Payments:       handler.NewPaymentHandler(npClient, orderMgr, cfg.NOWPaymentsIPNSecret, cfg.NOWPaymentsCallbackURL, logger),
		RateLimit:      limiter.Middleware(),
		LoginRateLimit: loginLimiter.Middleware(),
		CatalogCache:   cache.Middleware(),
	}, middleware.SessionAuth(auth, logger))

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
