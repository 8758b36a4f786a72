package scheduler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
)

type statsResponse struct {
	resp.Response
	Stats Stats `json:"stats"`
}

// Router — служебный HTTP-интерфейс планировщика: health, статистика и
// ручной запуск прохода.
func Router(log *slog.Logger, s *Scheduler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":  "healthy",
			"service": "scheduler",
			"stats":   s.Stats(),
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, statsResponse{
			Response: resp.OK(),
			Stats:    s.Stats(),
		})
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		const op = "scheduler.trigger"

		log := log.With(slog.String("op", op))
		log.Info("manual trigger requested")

		// проход выполняется в фоне, чтобы не держать HTTP-запрос
		// на всё время fan-out с паузами
		go func() {
			if err := s.Run(context.Background()); err != nil {
				log.Error("manual run failed", sl.Err(err))
			}
		}()

		render.JSON(w, r, resp.OK())
	})

	return r
}
