package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/OgnevOA/spendy-pants/internal/bot"
	"github.com/OgnevOA/spendy-pants/internal/config"
	"github.com/OgnevOA/spendy-pants/internal/docstore"
	dsmemory "github.com/OgnevOA/spendy-pants/internal/docstore/memory"
	dssqlite "github.com/OgnevOA/spendy-pants/internal/docstore/sqlite"
	"github.com/OgnevOA/spendy-pants/internal/log"
	"github.com/OgnevOA/spendy-pants/internal/queue"
	"github.com/OgnevOA/spendy-pants/internal/repo"
	"github.com/OgnevOA/spendy-pants/internal/scope"
	"github.com/OgnevOA/spendy-pants/internal/summary"
	"github.com/OgnevOA/spendy-pants/internal/telegram"
)

func main() {
	// .env is for local development; absence is fine in containers.
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
	logger.Info("document store ready", "backend", cfg.DocstoreBackend)

	tgClient, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to create telegram client", log.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.WebhookURL != "" {
		if err := tgClient.SetWebhook(cfg.WebhookURL + cfg.WebhookPath); err != nil {
			logger.Error("failed to register webhook", log.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("webhook registered", "url", cfg.WebhookURL+cfg.WebhookPath)
	}

	queueClient, err := queue.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer queueClient.Close()

	scopes := scope.NewService(repository, cfg.AdminUserID)
	reports := summary.NewService(repository)
	dispatcher := bot.New(scopes, reports, repository, queueClient, tgClient)

	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath, telegram.WebhookHandler(dispatcher))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		logger.Info("starting bot server", "port", cfg.Port, "path", cfg.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func openDocstore(cfg *config.Config) (docstore.Store, error) {
	if cfg.DocstoreBackend == "memory" {
		return dsmemory.New(), nil
	}
	return dssqlite.New(cfg.SQLiteDBPath)
}
