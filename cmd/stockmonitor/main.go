package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"pricewatch/internal/bus"
	"pricewatch/internal/config"
	"pricewatch/internal/events"
	"pricewatch/internal/lib/logger"
	"pricewatch/internal/monitor"
	"pricewatch/internal/store"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)

	log.Info("starting stock monitor", slog.String("env", cfg.Env))

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

	mon := monitor.NewStockMonitor(log, storeClient, msgBus)

	if err := msgBus.Subscribe(events.ChannelScrapeResult, mon.HandleResult); err != nil {
		log.Error("failed to subscribe", logger.Err(err))
		os.Exit(1)
	}

	go func() {
		if err := msgBus.Run(ctx); err != nil {
			log.Error("bus stopped", logger.Err(err))
			cancel()
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Services.StockMonitor,
		Handler:      healthRouter(),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("stock monitor listening", slog.String("addr", cfg.Services.StockMonitor))

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

func healthRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{
			"status":  "healthy",
			"service": "stock-monitor",
		})
	})

	return r
}
