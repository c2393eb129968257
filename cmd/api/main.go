package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodcourt-ordering/internal/client"
	"foodcourt-ordering/internal/config"
	"foodcourt-ordering/internal/logger"
	"foodcourt-ordering/internal/notify"
	"foodcourt-ordering/internal/payment"
	"foodcourt-ordering/internal/repository"
	"foodcourt-ordering/internal/server"
	"foodcourt-ordering/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		log.Error("init database failed", "error", err)
		os.Exit(1)
	}

	orderRepo := repository.NewOrderRepository(db)
	dishRepo := repository.NewDishRepository(db)
	foodCourtRepo := repository.NewFoodCourtRepository(db)
	cartRepo := repository.NewCartRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)

	if cfg.SeedDemo {
		if err := dishRepo.Seed(context.Background()); err != nil {
			log.Error("seed demo data failed", "error", err)
			os.Exit(1)
		}
		log.Info("demo data seeded")
	}

	mockProvider := payment.NewMockProvider(payment.NewMemoryLedger(), cfg.Payment.WebhookSecret, cfg.Payment.RequireSignature)
	registry := buildRegistry(cfg, mockProvider, log)

	hub := notify.NewHub(log)

	inventoryService := service.NewInventoryService(db, inventoryRepo, dishRepo, log)
	orderService := service.NewOrderService(
		db, cfg.Order,
		orderRepo,
		dishRepo,
		foodCourtRepo,
		cartRepo,
		paymentRepo,
		inventoryService,
		service.NewPromotionResolver(foodCourtRepo),
		hub,
		log,
	)
	cartService := service.NewCartService(cfg.Cart, cartRepo, dishRepo, log)
	paymentService := service.NewPaymentService(db, cfg.Payment, registry, orderRepo, paymentRepo, log)
	webhookService := service.NewWebhookService(db, registry, orderService, orderRepo, paymentRepo, webhookLogRepo, hub, log)

	srv := server.NewServer(cfg, log, server.Services{
		DB:            db,
		Order:         orderService,
		Cart:          cartService,
		Payment:       paymentService,
		Webhook:       webhookService,
		Inventory:     inventoryService,
		MockProvider:  mockProvider,
		Hub:           hub,
		FoodCourtRepo: foodCourtRepo,
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.Info("starting HTTP server", "addr", serverAddr, "env", cfg.Environment.Name, "providers", registry.Names())
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// buildRegistry registers mock and generic always and each gateway whose credentials are set.
func buildRegistry(cfg *config.Config, mock *payment.MockProvider, log *slog.Logger) *payment.Registry {
	generic := payment.NewGenericProvider(cfg.Payment.WebhookSecret, cfg.Payment.RequireSignature)
	registry := payment.NewRegistry(generic, mock, generic)

	if cfg.Paypal.Enabled() {
		registry.Register(payment.NewPaypalProvider(client.NewPaypalClient(&cfg.Paypal), cfg.BaseURL+cfg.HTTP.APIPrefix))
	}
	if cfg.BrainTree.Enabled() {
		registry.Register(payment.NewBraintreeProvider(client.NewBraintreeClient(&cfg.BrainTree)))
	}
	if cfg.GrabPay.Enabled() {
		registry.Register(payment.NewGrabPayProvider(client.NewGrabPayClient(&cfg.GrabPay), cfg.GrabPay.WebhookSecret))
	}
	if cfg.Stripe.Enabled() {
		registry.Register(payment.NewStripeProvider(client.NewStripeClient(&cfg.Stripe), cfg.Stripe.WebhookSecret))
	}

	if cfg.Payment.WebhookSecret == "" && cfg.Payment.RequireSignature {
		log.Warn("PAYMENT_WEBHOOK_SECRET is empty; mock and generic webhooks will be rejected")
	}
	return registry
}
