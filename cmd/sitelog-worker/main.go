// Command sitelog-worker mirrors the stored entry collection to a Google
// spreadsheet, on every change event and on a fixed interval.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"sitelog/internal/amqp"
	"sitelog/internal/backend"
	"sitelog/internal/cli"
	"sitelog/internal/log"
	"sitelog/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger, err := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker, os.Stdout)
	if err != nil {
		logger.Warn("Invalid log level, using info", log.FieldError, err)
	}
	logger.Info("Starting sitelog-worker")

	if !cfg.MirrorEnabled() {
		cli.Fatal(logger, "Mirror disabled", errors.New("GOOGLE_SPREADSHEET_ID is not set"))
	}

	// The worker only reads the store; change events come from its own consumer.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open store", err)
	}

	sheetsClient, err := cli.NewSheetsClient(context.Background(), cfg, logger)
	if err != nil {
		_ = res.Close()
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, mirroring on interval only", log.FieldError, err)
			consumer = nil
		}
	} else {
		logger.Info("AMQP disabled, mirroring on interval only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Error("Store close error", log.FieldError, err)
		}
	})

	w := worker.NewMirrorWorker(res.Store, sheetsClient, logger)
	if consumer != nil {
		go func() {
			if err := consumer.Consume(ctx, w.HandleChangeEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}
	go w.Run(ctx, cfg.MirrorInterval)

	cli.WaitForShutdown(ctx, done)
}
