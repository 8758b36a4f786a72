package products

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
	"pricewatch/internal/storage"
)

type ProductGetter interface {
	ProductByID(ctx context.Context, productID int64) (models.Product, error)
}

type Cache interface {
	Product(ctx context.Context, productID int64) (models.Product, error)
	SaveProduct(ctx context.Context, product models.Product) error
}

// NewGetByID читает продукт через кэш: промах идёт в базу и прогревает кэш.
func NewGetByID(log *slog.Logger, getter ProductGetter, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get_by_id"

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

		product, err := cache.Product(r.Context(), id)
		if err == nil {
			render.JSON(w, r, product)
			return
		}
		if !errors.Is(err, storage.ErrProductNotFound) {
			log.Warn("Cache lookup failed", sl.Err(err))
		}

		product, err = getter.ProductByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Product not found"))

				return
			}

			log.Error("Failed to get product", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := cache.SaveProduct(r.Context(), product); err != nil {
			log.Warn("Failed to cache product", sl.Err(err))
		}

		render.JSON(w, r, product)
	}
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
}
