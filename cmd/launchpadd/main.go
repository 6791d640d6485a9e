// cmd/launchpadd/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/launchpad/internal/api"
	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/config"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/listing"
	"github.com/rovshanmuradov/launchpad/internal/logger"
	"github.com/rovshanmuradov/launchpad/internal/metrics"
	"github.com/rovshanmuradov/launchpad/internal/router"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	storagemem "github.com/rovshanmuradov/launchpad/internal/storage/memory"
	"github.com/rovshanmuradov/launchpad/internal/storage/postgres"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

func main() {
	configPath := flag.String("config", "configs/launchpad.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	zapLogger := appLogger.Logger

	zapLogger.Info("Starting launchpad",
		zap.String("config", *configPath),
		zap.String("listen_addr", cfg.ListenAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Storage
	if cfg.PostgresURL != "" {
		store, err = postgres.NewStorage(cfg.PostgresURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
	} else {
		zapLogger.Warn("No postgres_url configured, using in-memory storage")
		store = storagemem.New()
	}
	if err := store.RunMigrations(); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	policy := auth.NewPolicy(zapLogger)
	led := ledger.NewMemory(zapLogger)
	ven := venue.NewMemory(zapLogger)
	registry := curve.NewRegistry(policy, zapLogger)
	rtr := router.New(registry, led, policy, launch.EngineAccount, cfg.MaxTradeFractionBps, nil, zapLogger)
	bus := events.NewBus(zapLogger, cfg.EventBufferLen)
	collector := metrics.NewCollector()

	engine, err := launch.NewEngine(launch.Economics{
		ReserveAsset:         ledger.TokenID(cfg.ReserveAsset),
		FlatFee:              cfg.FlatFee,
		MinDeposit:           cfg.MinDeposit,
		TradeFeeBps:          cfg.TradeFeeBps,
		GraduationThreshold:  cfg.GraduationThreshold,
		TokenSupply:          cfg.TokenSupply,
		VirtualTokenReserves: cfg.VirtualTokenReserves,
		VirtualAssetReserves: cfg.VirtualAssetReserves,
		FeeRecipient:         ledger.Account(cfg.FeeRecipient),
	}, launch.Deps{
		Registry: registry,
		Router:   rtr,
		Ledger:   led,
		Venue:    ven,
		Store:    store,
		Bus:      bus,
		Metrics:  collector,
		Policy:   policy,
		Logger:   zapLogger,
	})
	if err != nil {
		zapLogger.Fatal("Failed to build engine", zap.Error(err))
	}

	if err := engine.RecoverPending(ctx); err != nil {
		zapLogger.Fatal("Failed to reconcile pending graduations", zap.Error(err))
	}

	facade := listing.New(engine, zapLogger)
	server := api.New(cfg.ListenAddr, engine, engine, facade, zapLogger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(server.ListenAndServe)
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("API shutdown failed", zap.Error(err))
		}
		if err := bus.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Event bus shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		zapLogger.Fatal("Launchpad terminated", zap.Error(err))
	}
	zapLogger.Info("Launchpad stopped")
}
