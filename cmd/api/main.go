package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/fakestore"
	"storefront/internal/httpserver"
	"storefront/internal/kvstore"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	storage, cleanup, err := buildStorage(ctx, cfg)
	if err != nil {
		logger.Fatalf("init storage (%s): %v", cfg.StorageBackend, err)
	}
	defer cleanup()

	client := fakestore.NewClient(cfg.StoreAPIBaseURL, logger)
	var source catalog.Source = client
	if cfg.CatalogCSVPath != "" {
		logger.Printf("using offline catalog from %s", cfg.CatalogCSVPath)
		source = catalog.NewCSVSource(cfg.CatalogCSVPath)
	}

	authService := auth.New(ctx, client, storage, logger)
	catalogService := catalog.New(source, logger)
	cartStore := cart.New(ctx, storage, cart.Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
	}, logger)
	cartStore.Subscribe(func(v cart.View) {
		logger.Printf("cart changed: %d items, total %s", v.Totals.ItemCount, v.Totals.Total.StringFixed(2))
	})
	processor := checkout.New(cartStore, cfg.CheckoutStepInterval, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, storage, httpserver.Deps{
		Auth:     authService,
		Catalog:  catalogService,
		Cart:     cartStore,
		Checkout: processor,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// buildStorage constructs the snapshot backend named by the config. The
// returned cleanup closes whatever connection the backend holds.
func buildStorage(ctx context.Context, cfg config.Config) (kvstore.Store, func(), error) {
	switch cfg.StorageBackend {
	case "file":
		store, err := kvstore.NewFile(cfg.DataDir)
		return store, func() {}, err
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewPostgres(pool), pool.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return kvstore.NewRedis(client, cfg.RedisKeyPrefix), func() { client.Close() }, nil
	case "memory":
		return kvstore.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
