package prices

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	validator "github.com/go-playground/validator/v10"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
	"pricewatch/internal/storage"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type AddRequest struct {
	Price    float64 `json:"price" validate:"required,gt=0"`
	Currency string  `json:"currency"`
}

type Storage interface {
	SavePrice(ctx context.Context, productID int64, price float64, currency string) (models.PriceObservation, error)
	LatestPrice(ctx context.Context, productID int64) (models.PriceObservation, error)
	PriceHistory(ctx context.Context, productID int64, limit int) ([]models.PriceObservation, error)
}

// NewAdd пишет новое наблюдение цены. Лог append-only, записи не правятся.
func NewAdd(log *slog.Logger, st Storage, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.prices.add"

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

		var req AddRequest

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

		if req.Currency == "" {
			req.Currency = "INR"
		}

		obs, err := st.SavePrice(r.Context(), id, req.Price, req.Currency)
		if err != nil {
			log.Error("Failed to save price", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, obs)
	}
}

// NewLatest отдаёт последнее наблюдение; 404 означает «цены ещё нет»,
// потребители трактуют его как отсутствие baseline, а не как ошибку.
func NewLatest(log *slog.Logger, st Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.prices.latest"

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

		obs, err := st.LatestPrice(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("No price observations"))

				return
			}

			log.Error("Failed to get latest price", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, obs)
	}
}

func NewHistory(log *slog.Logger, st Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.prices.history"

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

		history, err := st.PriceHistory(r.Context(), id, parseLimit(r))
		if err != nil {
			log.Error("Failed to get price history", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if history == nil {
			history = []models.PriceObservation{}
		}

		render.JSON(w, r, history)
	}
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
}

func parseLimit(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultHistoryLimit
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}

	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}

	return limit
}
