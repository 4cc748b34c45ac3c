package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := setupLogger(cfg.LogLevel)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	tp, shutdownTracing, err := setupTracing(cfg.TraceExporter, os.Stdout)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	httpClient := newHTTPClient(tp)
	server := NewServer(logger,
		NewGoogleCalendar(cfg, googleCredentialStore(cfg), httpClient),
		NewMicrosoftCalendar(cfg, NewStatelessCallerSuppliedStore(Microsoft), httpClient),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "google_credentials", cfg.GoogleCredentialMode, "tracing", cfg.TraceExporter)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			os.Exit(1)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("tracing shutdown", "error", err)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
