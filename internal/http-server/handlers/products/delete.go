package products

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/storage"
)

type ProductDeleter interface {
	DeleteProduct(ctx context.Context, productID int64) error
}

// NewDelete снимает продукт с отслеживания; наблюдения удаляются каскадом.
func NewDelete(log *slog.Logger, deleter ProductDeleter, cache Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.delete"

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

		if err := deleter.DeleteProduct(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to delete product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := cache.Invalidate(r.Context(), id); err != nil {
			log.Warn("Failed to invalidate cache", sl.Err(err))
		}

		log.Info("Product deleted", slog.Int64("product_id", id))

		render.JSON(w, r, resp.OK())
	}
}
