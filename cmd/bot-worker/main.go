package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/OgnevOA/spendy-pants/internal/config"
	"github.com/OgnevOA/spendy-pants/internal/docstore"
	dsmemory "github.com/OgnevOA/spendy-pants/internal/docstore/memory"
	dssqlite "github.com/OgnevOA/spendy-pants/internal/docstore/sqlite"
	"github.com/OgnevOA/spendy-pants/internal/export"
	gsheet "github.com/OgnevOA/spendy-pants/internal/export/google"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/queue"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/telegram"
	"github.com/OgnevOA/spendy-pants/internal/vision"
	"github.com/OgnevOA/spendy-pants/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log.Setup(cfg.LogFormat)
	logger := log.New(log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	store, err := openDocstore(cfg)
	if err != nil {
		logger.Error("failed to open document store",
			log.FieldError, err.Error(), "backend", cfg.DocstoreBackend)
		os.Exit(1)
	}
	repository := repo.New(store)
	defer repository.Close()

	tgClient, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to create telegram client", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	// Ledger export is optional; the worker runs fine without it.
	var exporter export.ReceiptAppender
	if cfg.ExportEnabled() {
		sheets, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("failed to initialize sheets export", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("sheets export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	queueClient, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer queueClient.Close()

	scopes := scope.NewService(repository, cfg.AdminUserID)
	extractor := vision.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	w := worker.New(scopes, repository, extractor, tgClient, tgClient, exporter)

	g, runCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	g.Go(func() error {
		logger.Info("starting receipt worker", "queue", cfg.AMQPQueue)
		err := queueClient.ConsumeReceiptJobs(runCtx, func(msg *queue.ReceiptJobMessage) error {
			return w.HandleJob(runCtx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("shutdown signal received", "signal", sig.String())
			cancel()
		case <-runCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("consume loop failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}

func openDocstore(cfg *config.Config) (docstore.Store, error) {
	if cfg.DocstoreBackend == "memory" {
		return dsmemory.New(), nil
	}
	return dssqlite.New(cfg.SQLiteDBPath)
}
