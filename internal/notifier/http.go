package notifier

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
)

type NotifyRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Title   string `json:"title"`
	Message string `json:"message" validate:"required"`
}

// Router — служебный HTTP-интерфейс: health и ручная отправка уведомления.
func Router(log *slog.Logger, s *Service, validate *validator.Validate) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":  "healthy",
			"service": "notifier",
		})
	})

	r.Post("/notify", func(w http.ResponseWriter, r *http.Request) {
		const op = "notifier.notify"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req NotifyRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := s.Notify(r.Context(), req.UserID, req.Title, req.Message); err != nil {
			log.Error("Failed to send notification", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	})

	return r
}
