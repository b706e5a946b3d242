package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"rozliczenia/internal/amqp"
	"rozliczenia/internal/cli"
	gsheet "rozliczenia/internal/sheets/google"
	"rozliczenia/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting rozliczenia-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.SheetsExportEnabled() {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return
	}

	blobs := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer blobs.Close()

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	// AMQP is optional: without a broker the periodic sweep still exports
	// everything, just with more latency.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on periodic sweep only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	expWorker := worker.NewExportWorker(blobs, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch settlements created while the worker was down.
	logger.Info("Performing startup export sweep...")
	if err := expWorker.ExportPending(ctx); err != nil {
		logger.Error("Startup export sweep failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeChanges(gctx, func(msg *amqp.ChangeMessage) error {
				return expWorker.HandleChangeMessage(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := expWorker.ExportPending(gctx); err != nil {
					logger.Error("Periodic export sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
