package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fjod/shopflow/configs"
	"github.com/fjod/shopflow/internal/address"
	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/auth"
	"github.com/fjod/shopflow/internal/cart"
	"github.com/fjod/shopflow/internal/catalog"
	"github.com/fjod/shopflow/internal/checkout"
	"github.com/fjod/shopflow/internal/draft"
	"github.com/fjod/shopflow/internal/events"
	"github.com/fjod/shopflow/internal/httpapi"
	"github.com/fjod/shopflow/internal/logging"
	"github.com/fjod/shopflow/internal/orders"
	"github.com/fjod/shopflow/internal/session"
	"github.com/fjod/shopflow/internal/storage"
	"github.com/fjod/shopflow/internal/surface"
)

func main() {
	cfg, err := configs.Load(getEnv("SHOPFLOW_CONFIG_DIR", "configs"), os.Getenv("SHOPFLOW_ENV"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Component: cfg.App.Name,
		Level:     cfg.App.LogLevel,
		FilePath:  cfg.App.LogFile,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("shopflow stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg configs.Config, log *slog.Logger) error {
	ctx := context.Background()

	if cfg.Storage.Driver == "sqlite" && cfg.Storage.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			return err
		}
	}
	kv, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.Storage.Driver,
		SQLitePath:    cfg.Storage.SQLitePath,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisPrefix:   cfg.Storage.RedisPrefix,
		MongoURI:      cfg.Storage.MongoURI,
		MongoDB:       cfg.Storage.MongoDB,
	})
	if err != nil {
		return err
	}
	defer kv.Close()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	sess, err := session.Open(ctx, kv)
	if err != nil {
		return err
	}
	cartStore, err := cart.Open(ctx, kv)
	if err != nil {
		return err
	}

	drafts := draft.NewContext()
	recorder := surface.NewRecorder()
	gate := auth.NewGate(sess, drafts, recorder, recorder, log.With("component", "auth"))

	gw := apigw.NewGateway(cfg.API.BaseURL, cfg.API.Timeout, sess,
		apigw.WithUnauthorizedHandler(gate),
		apigw.WithLogger(log.With("component", "apigw")),
		apigw.WithBreaker(apigw.BreakerSettings{
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			Failures:    cfg.Breaker.Failures,
		}),
	)

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, log.With("component", "events"))
	defer publisher.Close()

	products := catalog.NewClient(gw)
	addresses := address.NewProvider(gw, log.With("component", "address"))
	authClient := auth.NewClient(gw, sess, gate, recorder, log.With("component", "auth"))
	orderClient := orders.NewClient(gw, cfg.Checkout.PaymentMethod, log.With("component", "orders"))
	submitter := checkout.NewSubmitter(gw, cartStore, drafts, publisher, log.With("component", "checkout"))

	flow := checkout.NewFlow(checkout.Config{
		RequireExplicitAddressConfirmation: cfg.Checkout.RequireExplicitAddressConfirmation,
	}, checkout.Deps{
		Catalog:   products,
		Cart:      cartStore,
		Addresses: addresses,
		Accounts:  authClient,
		Drafts:    drafts,
		Gate:      gate,
		Submitter: submitter,
		Navigator: recorder,
		Notifier:  recorder,
		Logger:    log.With("component", "flow"),
	})

	router := httpapi.NewRouter(httpapi.Handlers{
		Products: httpapi.NewProductHandler(products, recorder),
		Cart:     httpapi.NewCartHandler(cartStore, flow, recorder),
		Checkout: httpapi.NewCheckoutHandler(flow, recorder),
		Auth:     httpapi.NewAuthHandler(flow, sess, recorder),
		Address:  httpapi.NewAddressHandler(addresses, recorder),
		Orders:   httpapi.NewOrdersHandler(orderClient, recorder),
		Surface:  recorder,
	}, cfg.HTTP.RequestTimeout, log.With("component", "http"))

	srv := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("shopflow listening", "addr", cfg.App.HTTPAddr, "api", cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
