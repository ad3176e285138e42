package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finwallet/internal/cli"
	"finwallet/internal/events/amqp"
	applog "finwallet/internal/log"
	"finwallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting wallet-audit",
		applog.FieldOperation, applog.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	// Initialize AMQP client for consuming ledger events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	auditWorker := worker.NewAuditWorker(logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		auditWorker.LogSummary(context.Background())
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	})

	go func() {
		err := amqpClient.ConsumeWithRetry(ctx, auditWorker.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ledger event consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.AuditSummaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				auditWorker.LogSummary(ctx)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("wallet-audit stopped")
}
