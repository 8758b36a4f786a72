package products

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"pricewatch/internal/events"
	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

type AddRequest struct {
	URL      string          `json:"url" validate:"required,url"`
	Platform models.Platform `json:"platform" validate:"required"`
	UserID   string          `json:"user_id" validate:"required"`
	Name     string          `json:"name"`
}

type ProductSaver interface {
	SaveProduct(ctx context.Context, url string, platform models.Platform, userID, name string) (models.Product, bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

// NewAdd регистрирует продукт и сразу публикует scrape:request, чтобы первое
// наблюдение появилось, не дожидаясь планировщика. Повторный URL возвращает
// существующую запись.
func NewAdd(log *slog.Logger, saver ProductSaver, bus Publisher, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.add"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req AddRequest

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // * 1 МБ лимит запроса
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if !req.Platform.Valid() {
			log.Error("Unsupported platform", slog.String("platform", string(req.Platform)))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Unsupported platform"))

			return
		}

		product, created, err := saver.SaveProduct(r.Context(), req.URL, req.Platform, req.UserID, req.Name)
		if err != nil {
			log.Error("Failed to save product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := bus.Publish(r.Context(), events.ChannelScrapeRequest, events.ScrapeRequest{
			ProductID: product.ID,
			URL:       product.URL,
			Platform:  product.Platform,
			RequestID: fmt.Sprintf("track-%d-%s", product.ID, uuid.NewString()),
		}); err != nil {
			// продукт сохранён, первый скрап догонит планировщик
			log.Error("Failed to publish initial scrape request", sl.Err(err))
		}

		log.Info("Product saved",
			slog.Int64("product_id", product.ID),
			slog.Bool("created", created),
		)

		if created {
			render.Status(r, http.StatusCreated)
		}
		render.JSON(w, r, product)
	}
}
