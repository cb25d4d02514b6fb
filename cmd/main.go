package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediasub/autosub/internal/config"
	"github.com/mediasub/autosub/internal/httpapi"
	"github.com/mediasub/autosub/internal/jobs"
	"github.com/mediasub/autosub/internal/media"
	"github.com/mediasub/autosub/internal/pipeline"
	"github.com/mediasub/autosub/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		fileLogger, err := log.InitFileLogger(cfg.LogFile, log.ParseLevel(cfg.LogLevel))
		if err != nil {
			log.Fatal("Failed to open log file: %v", err)
		}
		defer fileLogger.Close()
	}

	store, err := jobs.NewStore(cfg.JobsDir)
	if err != nil {
		log.Fatal("Failed to initialize job store: %v", err)
	}

	tools := media.NewToolchain(cfg.FFmpegBin, cfg.WhisperBin, cfg.ModelPath)
	executor := pipeline.NewExecutor(store, tools)
	dispatcher := jobs.NewDispatcher(store, executor.Run, cfg.MaxConcurrentJobs)
	server := httpapi.NewServer(dispatcher, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s (jobs dir %s)", cfg.ListenAddr, cfg.JobsDir)
		errCh <- server.ListenAndServe(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Shutdown error: %v", err)
		}
	}
}
