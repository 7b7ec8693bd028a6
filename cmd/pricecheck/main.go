package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/pricecheck/internal/config"
	"github.com/vbonduro/pricecheck/internal/currency"
	"github.com/vbonduro/pricecheck/internal/db"
	"github.com/vbonduro/pricecheck/internal/logging"
	"github.com/vbonduro/pricecheck/internal/service"
	"github.com/vbonduro/pricecheck/internal/store"
	"github.com/vbonduro/pricecheck/internal/store/postgres"
	"github.com/vbonduro/pricecheck/internal/store/supabase"
	"github.com/vbonduro/pricecheck/internal/web"
	"github.com/vbonduro/pricecheck/internal/web/templates"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rates, err := currency.Load(cfg.RatesFile)
	if err != nil {
		return fmt.Errorf("failed to load exchange rates: %w", err)
	}
	logger.Info("exchange rates loaded", "canonical", rates.Canonical(), "currencies", len(rates.Codes()))

	prices, closeStore, err := newPriceStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := service.NewPriceService(prices, rates, logger)
	server := web.NewServer(svc, templates.FS, logger)

	return server.ListenAndServe(ctx, cfg.ListenAddr, cfg.ShutdownTimeout)
}

// newPriceStore opens the record store selected by STORE_BACKEND. The
// returned func releases its connections.
func newPriceStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.PriceStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres price store")
		return postgres.NewPostgresPriceStore(pool), pool.Close, nil
	case config.BackendSupabase:
		logger.Info("using supabase price store", "url", cfg.SupabaseURL)
		return supabase.NewSupabasePriceStore(cfg.SupabaseURL, cfg.SupabaseKey), func() {}, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("using sqlite price store", "path", cfg.DBPath)
		return store.NewPriceStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}
