// reportd serves the incident report pipeline over HTTP and, when an
// inbox directory is configured, converts dropped mail files on the side.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dispatchreport/internal/common"
	"dispatchreport/internal/ingest"
	"dispatchreport/internal/report"
	"dispatchreport/internal/repository"
	"dispatchreport/internal/server"
	"dispatchreport/internal/template"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = zl.Sync()
	}()
	log := zl.Sugar()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	templateBytes, err := os.ReadFile(cfg.Template.Path)
	if err != nil {
		log.Fatalf("failed to read template %s: %v", cfg.Template.Path, err)
	}

	layout := template.DefaultLayout()
	if cfg.Template.LayoutPath != "" {
		layout, err = template.LoadLayout(cfg.Template.LayoutPath)
		if err != nil {
			log.Fatalf("failed to load layout %s: %v", cfg.Template.LayoutPath, err)
		}
	}

	required, err := report.ParseRequiredFields(cfg.Template.RequiredFields)
	if err != nil {
		log.Fatalf("invalid REQUIRED_FIELDS: %v", err)
	}

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to open history database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	history, err := repository.NewHistoryRepository(ctx, db)
	if err != nil {
		log.Fatalf("failed to prepare history store: %v", err)
	}

	svc := report.NewService(templateBytes, layout, history, required, logger)

	if cfg.Ingest.InboxDir != "" {
		events, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Root:     cfg.Ingest.InboxDir,
			Debounce: cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			log.Fatalf("failed to watch inbox %s: %v", cfg.Ingest.InboxDir, err)
		}
		runner := ingest.NewRunner(svc, cfg.Ingest.OutputDir, logger)
		go func() {
			if err := runner.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("inbox runner stopped: %v", err)
			}
		}()
		go func() {
			for err := range errCh {
				log.Warnf("inbox watcher: %v", err)
			}
		}()
		log.Infof("watching inbox %s", cfg.Ingest.InboxDir)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, cfg.Auth, logger).Router(),
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown failed: %v", err)
	}
}
