package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rebuy/internal/backend"
	"rebuy/internal/config"
	"rebuy/internal/handlers"
	"rebuy/internal/logger"
	"rebuy/internal/services"
)

func main() {
	// .env is optional; deployments provide the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("load league timezone failed", zap.String("tz", cfg.LeagueTZ), zap.Error(err))
	}

	store := backend.New(cfg.BackendBaseURL, cfg.BackendAppID, cfg.BackendAPIKey)
	sender := services.NewSMSService(cfg, log)
	worker := services.NewNotifyWorker(store, sender, cfg, loc, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handlers.NewRouter(worker),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker starting",
		zap.String("http", cfg.HTTPAddr),
		zap.String("tz", cfg.LeagueTZ),
		zap.Duration("interval", cfg.TickInterval))

	// Blocks until a shutdown signal arrives.
	worker.Run(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("worker stopped")
}
