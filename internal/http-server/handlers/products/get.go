package products

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

type ProductsGetter interface {
	Products(ctx context.Context) ([]models.Product, error)
	ProductsByUser(ctx context.Context, userID string) ([]models.Product, error)
}

// NewGet отдаёт все продукты либо продукты одного подписчика (?userId=).
func NewGet(log *slog.Logger, getter ProductsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.products.get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var (
			products []models.Product
			err      error
		)

		if userID := r.URL.Query().Get("userId"); userID != "" {
			products, err = getter.ProductsByUser(r.Context(), userID)
		} else {
			products, err = getter.Products(r.Context())
		}
		if err != nil {
			log.Error("Failed to get products", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if products == nil {
			products = []models.Product{}
		}

		render.JSON(w, r, products)
	}
}
