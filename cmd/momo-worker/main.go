package main

import (
	"context"
	"errors"
	"os"
	"time"

	_ "time/tzdata"

	"momo/internal/amqp"
	"momo/internal/cli"
	"momo/internal/config"
	applog "momo/internal/log"
	"momo/internal/sheets"
	gsheet "momo/internal/sheets/google"
	memsheet "momo/internal/sheets/memory"
	"momo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting momo-worker")

	loc := cfg.Location()
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath, loc)
	defer repo.Close()

	var mirror sheets.RecordMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, gsheet.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		}, loc)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		mirror = memsheet.New(loc)
		logger.Warn("GOOGLE_SPREADSHEET_ID not set; mirroring into memory only")
	}

	if hw, ok := mirror.(sheets.HeaderWriter); ok {
		if err := hw.EnsureHeader(context.Background()); err != nil {
			logger.Error("Failed to write sheet header", "error", err)
			os.Exit(1)
		}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(repo, mirror)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	if cfg.ReconcileOnStart {
		logger.Info("Reconciling mirror with stored records")
		if err := syncWorker.Reconcile(ctx); err != nil {
			// Not fatal; new events still flow.
			logger.Error("Startup reconcile failed", "error", err)
		}
	}

	logger.Info("Consuming record events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.ConsumeRecordEvents(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
