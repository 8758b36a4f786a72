package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/internal/config"
	"pricewatch/internal/gateway"
	"pricewatch/internal/lib/jwt"
	"pricewatch/internal/lib/logger"
	"pricewatch/internal/store"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)

	log.Info("starting api gateway", slog.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	storeClient := store.New(cfg.StoreURL, cfg.HTTPServer.Timeout)

	health := gateway.NewHealthChecker(cfg.HealthTargets)

	gw := gateway.New(log, cfg.StoreURL, storeClient, health)

	srv := &http.Server{
		Addr:         cfg.Services.Gateway,
		Handler:      gw.Router(jwt.New(cfg.JWTSecret)),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("api gateway listening", slog.String("addr", cfg.Services.Gateway))

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
