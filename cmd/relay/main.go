package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nashcompany/storefront/internal/config"
	h "github.com/nashcompany/storefront/internal/http"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/nashcompany/storefront/internal/notify"
	"github.com/nashcompany/storefront/internal/payment"
	"github.com/nashcompany/storefront/internal/publisher"
	"github.com/nashcompany/storefront/internal/repository"
	"github.com/nashcompany/storefront/internal/service"
)

func main() {
	config.Load()
	cfg, err := config.LoadRelay()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.PaymentAccessToken == "" {
		log.Warn("MP_ACCESS_TOKEN is not set, checkout requests will fail")
	}
	if cfg.MessagingAPIKey == "" {
		log.Warn("WHATSAPP_API_KEY is not set, notifications fall back to wa.me links")
	}

	ctx := context.Background()

	orders, err := openPendingStore(ctx, cfg)
	if err != nil {
		log.Error("pending order store unavailable", "store", cfg.PendingStore, "error", err)
		os.Exit(1)
	}
	defer orders.Close()

	messageLog, err := openMessageLog(cfg)
	if err != nil {
		log.Error("message log unavailable", "path", cfg.MessageLogDB, "error", err)
		os.Exit(1)
	}
	defer messageLog.Close()

	events := publisher.New(log, cfg.KafkaBrokers)
	defer events.Close()

	gateway := payment.NewMercadoPagoClient(payment.Config{
		BaseURL:     cfg.PaymentAPIURL,
		AccessToken: cfg.PaymentAccessToken,
		Timeout:     cfg.PaymentTimeout,
	}, log)

	messenger := notify.NewAPIMessenger(notify.APIConfig{
		BaseURL: cfg.MessagingAPIURL,
		APIKey:  cfg.MessagingAPIKey,
		Timeout: cfg.MessagingTimeout,
	}, log)
	sender := notify.NewSender(messenger, messageLog, cfg.AdminPhone, log)

	relay := service.NewRelay(gateway, orders, sender, events, service.RelayConfig{
		PublicURL:  cfg.PublicURL,
		SuccessURL: cfg.SuccessURL,
		FailureURL: cfg.FailureURL,
		PendingURL: cfg.PendingURL,
		Retention:  cfg.PendingRetention,
	}, log)

	router := h.NewRouter(h.Handlers{
		Checkout: h.NewCheckoutHandler(relay, cfg.RequestTimeout, log),
		Admin:    h.NewAdminHandler(sender, messageLog, cfg.RequestTimeout, log),
		Pages:    h.NewPagesHandler(cfg.AdminPhone),
	}, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		AdminRateLimit:     cfg.AdminRateLimit,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, "storefront-relay"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("order relay starting", "port", cfg.Port, "pending_store", cfg.PendingStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}

func openPendingStore(ctx context.Context, cfg *config.Relay) (repository.PendingOrderStore, error) {
	if cfg.PendingStore != config.PendingStoreRedis {
		return repository.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return repository.NewRedisStore(client, cfg.PendingRetention), nil
}

func openMessageLog(cfg *config.Relay) (notify.MessageLog, error) {
	if cfg.MessageLogDB == "" {
		return notify.NewMemoryLog(), nil
	}
	return notify.NewSQLiteLog(cfg.MessageLogDB)
}
