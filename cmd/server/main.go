package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imgix/contentful/internal/app"
	"github.com/imgix/contentful/internal/config"
	"github.com/imgix/contentful/internal/logging"
)

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		os.Exit(1)
	}
	logger := application.Logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", logging.WithField("error", err.Error()))
		}
	}()

	if err := application.Run(ctx); err != nil && err != http.ErrServerClosed {
		logger.Error("HTTP server error", logging.WithField("error", err.Error()))
		os.Exit(1)
	}
}
