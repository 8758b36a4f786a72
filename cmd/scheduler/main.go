package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/internal/bus"
	"pricewatch/internal/config"
	"pricewatch/internal/lib/logger"
	"pricewatch/internal/scheduler"
	"pricewatch/internal/store"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)

	log.Info("starting scheduler service",
		slog.String("env", cfg.Env),
		slog.String("cron", cfg.Scheduler.CronPattern),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// * Инициализация шины сообщений
	msgBus, err := bus.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, log)
	if err != nil {
		log.Error("failed to connect message bus", logger.Err(err))
		os.Exit(1)
	}
	defer msgBus.Close()

	storeClient := store.New(cfg.StoreURL, cfg.HTTPServer.Timeout)

	sched := scheduler.New(log, storeClient, msgBus, cfg.Scheduler.CronPattern, cfg.Scheduler.PaceDelay)

	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", logger.Err(err))
		os.Exit(1)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Services.Scheduler,
		Handler:      scheduler.Router(log, sched),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("scheduler service listening", slog.String("addr", cfg.Services.Scheduler))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", logger.Err(err))
	}
}
