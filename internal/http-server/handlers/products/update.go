package products

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/storage"
)

type UpdateRequest struct {
	Name string `json:"name" validate:"required"`
}

type NameUpdater interface {
	UpdateProductName(ctx context.Context, productID int64, name string) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, productID int64) error
}

// NewUpdate обновляет отображаемое имя продукта (заполняется из скрапов).
func NewUpdate(log *slog.Logger, updater NameUpdater, cache Invalidator, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := productID(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid product id"))

			return
		}

		var req UpdateRequest

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

		if err := updater.UpdateProductName(r.Context(), id, req.Name); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to update product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := cache.Invalidate(r.Context(), id); err != nil {
			log.Warn("Failed to invalidate cache", sl.Err(err))
		}

		render.JSON(w, r, resp.OK())
	}
}
