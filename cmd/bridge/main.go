package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nopayn/psp-bridge/internal/config"
	"github.com/nopayn/psp-bridge/internal/core/service"
	"github.com/nopayn/psp-bridge/internal/infrastructure/cache"
	"github.com/nopayn/psp-bridge/internal/infrastructure/events"
	"github.com/nopayn/psp-bridge/internal/infrastructure/persistence"
	"github.com/nopayn/psp-bridge/internal/infrastructure/persistence/postgres"
	"github.com/nopayn/psp-bridge/internal/infrastructure/psp"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest/handlers"
	"github.com/nopayn/psp-bridge/internal/interfaces/rest/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting psp bridge",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	orderRepo := postgres.NewOrderRepository(db.Pool)
	settingsRepo := postgres.NewSettingsRepository(db.Pool)

	currencyCache := cache.New(cfg.Redis.Addr)
	defer currencyCache.Close()

	producer := events.NewProducer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.BufferSize,
		cfg.Kafka.ServiceName,
		logger,
	)
	producerCtx, stopProducer := context.WithCancel(context.Background())
	producer.Start(producerCtx)

	pspClient := psp.NewPSPClient(cfg.PSP)

	policyService := service.NewPolicyService(settingsRepo, logger)
	currencyService := service.NewCurrencyService(pspClient, currencyCache, logger)
	builder := service.NewOrderBuilder(cfg.PSP.WebhookURL, cfg.PSP.ReturnURL, cfg.PSP.OrderExpirationMinutes)

	reconciler := service.NewReconciler(pspClient, ledgerRepo, orderRepo, policyService, producer, logger)
	checkoutService := service.NewCheckoutService(pspClient, ledgerRepo, orderRepo, policyService, currencyService, builder, logger)
	refundService := service.NewRefundService(pspClient, ledgerRepo, orderRepo, builder, logger)

	h := handlers.New(reconciler, checkoutService, refundService, policyService, cfg.PSP.WebhookSecret, logger)

	var handler http.Handler = rest.NewRouter(h, logger)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	stopProducer()
	producer.WaitClosed()

	logger.Info("server exited")
}
