package offers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

type ReplaceRequest struct {
	Offers []models.OfferRecord `json:"offers"`
}

type Storage interface {
	Offers(ctx context.Context, productID int64) ([]models.OfferRecord, error)
	ReplaceOffers(ctx context.Context, productID int64, offers []models.OfferRecord) error
	ClearOffers(ctx context.Context, productID int64) (int64, error)
}

func NewGet(log *slog.Logger, st Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offers.get"

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

		offers, err := st.Offers(r.Context(), id)
		if err != nil {
			log.Error("Failed to get offers", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if offers == nil {
			offers = []models.OfferRecord{}
		}

		render.JSON(w, r, offers)
	}
}

// NewReplace заменяет набор офферов продукта целиком: так «текущие офферы»
// всегда остаются снимком одного скрапа, без частичных обновлений.
func NewReplace(log *slog.Logger, st Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offers.replace"

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

		var req ReplaceRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := st.ReplaceOffers(r.Context(), id, req.Offers); err != nil {
			log.Error("Failed to replace offers", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Offers replaced",
			slog.Int64("product_id", id),
			slog.Int("count", len(req.Offers)),
		)

		render.JSON(w, r, resp.OK())
	}
}

func NewClear(log *slog.Logger, st Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offers.clear"

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

		deleted, err := st.ClearOffers(r.Context(), id)
		if err != nil {
			log.Error("Failed to clear offers", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, map[string]int64{"deleted": deleted})
	}
}

func productID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
}
