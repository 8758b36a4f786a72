package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	validator "github.com/go-playground/validator/v10"

	"pricewatch/internal/bus"
	"pricewatch/internal/config"
	"pricewatch/internal/events"
	"pricewatch/internal/lib/logger"
	"pricewatch/internal/notifier"
	"pricewatch/internal/rabbitmq"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)

	log.Info("starting notification service", slog.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// * Инициализация шины сообщений
	msgBus, err := bus.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, log)
	if err != nil {
		log.Error("failed to connect message bus", logger.Err(err))
		os.Exit(1)
	}
	defer msgBus.Close()

	// * Инициализация RabbitMQ
	rabbitClient, err := rabbitmq.New(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("failed to connect rabbitmq", logger.Err(err))
		os.Exit(1)
	}
	defer rabbitClient.Close()

	if err := rabbitClient.DeclareQueue(cfg.RabbitMQ.QueueName); err != nil {
		log.Error("failed to declare queue", logger.Err(err))
		os.Exit(1)
	}

	producer := rabbitmq.NewProducer(rabbitClient.Channel, cfg.RabbitMQ.QueueName)

	service := notifier.New(log, msgBus, producer)

	subscriptions := map[string]bus.Handler{
		events.ChannelAlertPriceChange: service.HandlePriceAlert,
		events.ChannelAlertOfferChange: service.HandleOfferAlert,
		events.ChannelAlertStockChange: service.HandleStockAlert,
	}

	for channel, handler := range subscriptions {
		if err := msgBus.Subscribe(channel, handler); err != nil {
			log.Error("failed to subscribe", slog.String("channel", channel), logger.Err(err))
			os.Exit(1)
		}
	}

	go func() {
		if err := msgBus.Run(ctx); err != nil {
			log.Error("bus stopped", logger.Err(err))
			cancel()
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Services.Notifier,
		Handler:      notifier.Router(log, service, validator.New()),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("notification service listening", slog.String("addr", cfg.Services.Notifier))

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
