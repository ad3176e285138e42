package main

import (
	"context"
	"os"

	"finwallet/internal/cli"
	applog "finwallet/internal/log"
	"finwallet/internal/repl"
	"finwallet/internal/services"
	"finwallet/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting wallet",
		applog.FieldOperation, applog.OpStartup,
		"data_backend", cfg.DataBackend,
		"events_backend", cfg.EventsBackend,
		applog.FieldPolicy, cfg.LoadPolicy)

	initCtx := context.Background()
	registry := cli.InitRegistry(initCtx, logger, cfg)
	be := cli.InitBackend(initCtx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	wallets := store.New(be.Persister, store.LoadPolicy(cfg.LoadPolicy), logger)
	svc := services.NewFinanceService(registry, wallets, be.Publisher, logger)

	// A signal interrupts the blocking read on stdin, so every wallet in
	// memory is saved from the shutdown hook instead.
	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		if err := svc.SaveAll(context.Background()); err != nil {
			logger.Error("Failed to save wallets on shutdown", "error", err)
		}
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- repl.New(svc, logger).Run(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-runErr:
		if err != nil {
			logger.Error("REPL stopped", "error", err)
		}
	case <-done:
	}
	logger.Info("Wallet stopped")
}
