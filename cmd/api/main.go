package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/app"
	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup_failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Server().Router(a.RouterOptions()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.Scheduler.Run(ctx)

	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.Int("targets", a.Registry.Len()),
			zap.Duration("interval", cfg.CheckInterval),
			zap.String("schedule", cfg.CheckSchedule),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn("close_failed", zap.Error(err))
	}
	logger.Info("shutdown_complete")
}
