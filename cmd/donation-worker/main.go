package main

import (
	"context"
	"errors"
	"os"

	"donorboard/internal/amqp"
	"donorboard/internal/cli"
	"donorboard/internal/log"
	"donorboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting donation-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the donation worker")
		os.Exit(1)
	}

	parent, stop := context.WithCancel(context.Background())
	defer stop()

	store := cli.InitBackend(parent, logger, cfg, cfg.IngestBackend)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Ingest backend cleanup failed", log.FieldError, err.Error())
		}
	}()
	if store.Writer == nil {
		logger.Error("Ingest backend is read-only", log.FieldBackend, cfg.IngestBackend)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ingest := worker.NewIngestWorker(store.Writer, logger)
	logger.Info("Storing donation events", log.FieldBackend, cfg.IngestBackend)

	ctx, done := cli.GracefulShutdown(parent, logger, cfg.ShutdownTimeout, nil)

	// Recover donations recorded while the worker was down.
	if cfg.BackfillFrom != "" {
		src := cli.InitBackend(ctx, logger, cfg, cfg.BackfillFrom)
		n, err := ingest.Backfill(ctx, src.Fetcher)
		if err != nil {
			logger.Error("Backfill incomplete", log.FieldError, err.Error(), log.FieldBackend, cfg.BackfillFrom, log.FieldCount, n)
		}
		if err := src.Close(); err != nil {
			logger.Warn("Backfill source cleanup failed", log.FieldError, err.Error())
		}
	}

	go func() {
		err := amqpClient.ConsumeDonations(ctx, ingest.HandleDonationRecorded)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
		}
		stop()
	}()

	<-ctx.Done()
	<-done
	logger.Info("Worker shutdown complete")
}
