// Package main is the entry point for the WaveCMS category API server.
// It loads configuration, connects to services, sets up routing, and
// starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wavecms/internal/cache"
	"wavecms/internal/category"
	"wavecms/internal/config"
	"wavecms/internal/database"
	"wavecms/internal/handlers"
	"wavecms/internal/router"
	"wavecms/internal/store"
)

func main() {
	// Structured logger for the whole process.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Info(".env loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
		"cache_ttl", cfg.CacheTTL.String(),
	)

	// Pick the persistence adapter. The in-memory store exists so the
	// API can be explored without PostgreSQL; config.Load rejects it in
	// production.
	var catStore category.Store
	switch cfg.DBDriver {
	case "memory":
		slog.Warn("using in-memory store, data will not survive a restart")
		catStore = category.NewMemStore()
	default:
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		if cfg.IsDev() {
			if err := database.Seed(db); err != nil {
				slog.Error("failed to seed database", "error", err)
				os.Exit(1)
			}
		}
		catStore = store.New(db)
	}

	// The category service: mutation engine, diagnostics, sync, and the
	// in-process query cache (L1).
	queryCache := category.NewQueryCache(cfg.CacheTTL, cfg.SlowQuery)
	svc := category.NewService(catStore, queryCache, category.Penalties{
		Orphan:         cfg.PenaltyOrphan,
		Level:          cfg.PenaltyLevel,
		EmptyHierarchy: cfg.PenaltyEmptyHierarchy,
	})

	// Valkey is the optional L2 listing cache; the app degrades to L1
	// only when it is unreachable.
	var listings *cache.ListingCache
	if valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword); err != nil {
		slog.Warn("valkey unavailable, running with in-process cache only", "error", err)
	} else {
		defer valkeyClient.Close()
		listings = cache.NewListingCache(valkeyClient, cfg.CacheTTL)
		svc.SetListingCache(listings)
	}

	if cfg.WarmupOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := svc.WarmCache(ctx, nil); err != nil {
			slog.Warn("cache warm-up failed", "error", err)
		}
		cancel()
	}

	r := router.New(
		handlers.NewCategories(svc, listings),
		handlers.NewOps(svc),
	)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	// Serve until interrupted, then drain in-flight requests.
	go func() {
		slog.Info("server listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
