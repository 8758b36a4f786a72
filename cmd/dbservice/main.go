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
	validator "github.com/go-playground/validator/v10"

	"pricewatch/internal/bus"
	"pricewatch/internal/config"
	"pricewatch/internal/http-server/handlers/offers"
	"pricewatch/internal/http-server/handlers/prices"
	"pricewatch/internal/http-server/handlers/products"
	"pricewatch/internal/http-server/handlers/stock"
	"pricewatch/internal/lib/logger"
	"pricewatch/internal/storage/cache"
	"pricewatch/internal/storage/postgres"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env)

	log.Info("starting db service", slog.String("env", cfg.Env))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// * Инициализация PostgreSQL
	repo, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect postgres", logger.Err(err))
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Init(ctx); err != nil {
		log.Error("failed to init schema", logger.Err(err))
		os.Exit(1)
	}

	// * Инициализация Redis-кеша
	productCache, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, cfg.Redis.DefaultTTL)
	if err != nil {
		log.Error("failed to connect redis", logger.Err(err))
		os.Exit(1)
	}
	defer productCache.Close()

	// * Инициализация шины сообщений
	msgBus, err := bus.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, log)
	if err != nil {
		log.Error("failed to connect message bus", logger.Err(err))
		os.Exit(1)
	}
	defer msgBus.Close()

	validate := validator.New()

	router := setupRouter(log, repo, productCache, msgBus, validate)

	srv := &http.Server{
		Addr:         cfg.Services.Database,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("db service listening", slog.String("addr", cfg.Services.Database))

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

func setupRouter(
	log *slog.Logger,
	repo *postgres.Repo,
	productCache *cache.Repo,
	msgBus *bus.Bus,
	validate *validator.Validate,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]string{
			"status":  "healthy",
			"service": "database",
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", products.NewAdd(log, repo, msgBus, validate))
		r.Get("/", products.NewGet(log, repo))
		r.Get("/{productID}", products.NewGetByID(log, repo, productCache))
		r.Put("/{productID}", products.NewUpdate(log, repo, productCache, validate))
		r.Delete("/{productID}", products.NewDelete(log, repo, productCache))
	})

	r.Route("/prices/{productID}", func(r chi.Router) {
		r.Post("/", prices.NewAdd(log, repo, validate))
		r.Get("/latest", prices.NewLatest(log, repo))
		r.Get("/history", prices.NewHistory(log, repo))
	})

	r.Route("/offers/{productID}", func(r chi.Router) {
		r.Get("/", offers.NewGet(log, repo))
		r.Post("/", offers.NewReplace(log, repo))
		r.Delete("/", offers.NewClear(log, repo))
	})

	r.Route("/stock/{productID}", func(r chi.Router) {
		r.Post("/", stock.NewAdd(log, repo, validate))
		r.Get("/", stock.NewLatest(log, repo))
	})

	return r
}
