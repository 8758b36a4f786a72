package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-resty/resty/v2"

	resp "pricewatch/internal/lib/api/response"
	"pricewatch/internal/lib/jwt"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/middleware/auth"
	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

// ProductGetter нужен шлюзу для проверки владельца перед удалением.
type ProductGetter interface {
	Product(ctx context.Context, productID int64) (models.Product, error)
}

type Gateway struct {
	log     *slog.Logger
	db      *resty.Client
	store   ProductGetter
	health  *HealthChecker
	version string
}

func New(log *slog.Logger, dbURL string, st ProductGetter, health *HealthChecker) *Gateway {
	return &Gateway{
		log:     log,
		db:      resty.New().SetBaseURL(dbURL),
		store:   st,
		health:  health,
		version: "1.0.0",
	}
}

func (g *Gateway) Router(parser *jwt.Parser) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", g.root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", g.health.Handler())

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(parser))

			r.Get("/products", g.listProducts)
			r.Post("/products", g.createProduct)
			r.Get("/products/{productID}", g.proxyGet("/products/%d"))
			r.Delete("/products/{productID}", g.deleteProduct)

			r.Get("/products/{productID}/price", g.proxyGet("/prices/%d/latest"))
			r.Get("/products/{productID}/price-history", g.priceHistory)
			r.Get("/products/{productID}/offers", g.proxyGet("/offers/%d"))
			r.Get("/products/{productID}/stock", g.proxyGet("/stock/%d"))
		})
	})

	return r
}

func (g *Gateway) root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"service": "Price Tracker API Gateway",
		"version": g.version,
		"endpoints": map[string]string{
			"health":              "/api/health",
			"products":            "/api/products",
			"productById":         "/api/products/{id}",
			"productPrice":        "/api/products/{id}/price",
			"productPriceHistory": "/api/products/{id}/price-history",
			"productOffers":       "/api/products/{id}/offers",
			"productStock":        "/api/products/{id}/stock",
		},
	})
}

// listProducts всегда фильтрует по пользователю из токена: чужие продукты
// через шлюз не видны.
func (g *Gateway) listProducts(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.listProducts"

	uid, ok := auth.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Missing authorization"))

		return
	}

	res, err := g.db.R().
		SetContext(r.Context()).
		SetQueryParam("userId", uid).
		Get("/products")
	if err != nil {
		g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Upstream unavailable"))

		return
	}

	relay(w, res)
}

func (g *Gateway) createProduct(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.createProduct"

	uid, ok := auth.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Missing authorization"))

		return
	}

	var body map[string]any
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Failed to decode request"))

		return
	}

	// user_id берётся только из токена, значение из тела игнорируется
	body["user_id"] = uid

	res, err := g.db.R().
		SetContext(r.Context()).
		SetBody(body).
		Post("/products")
	if err != nil {
		g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Upstream unavailable"))

		return
	}

	relay(w, res)
}

func (g *Gateway) deleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.deleteProduct"

	uid, ok := auth.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Missing authorization"))

		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Invalid product id"))

		return
	}

	product, err := g.store.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("Product not found"))

			return
		}

		g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Upstream unavailable"))

		return
	}

	if product.UserID != uid {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error("Not your product"))

		return
	}

	res, err := g.db.R().
		SetContext(r.Context()).
		Delete("/products/" + strconv.FormatInt(id, 10))
	if err != nil {
		g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Upstream unavailable"))

		return
	}

	relay(w, res)
}

func (g *Gateway) priceHistory(w http.ResponseWriter, r *http.Request) {
	const op = "gateway.priceHistory"

	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Invalid product id"))

		return
	}

	req := g.db.R().SetContext(r.Context())
	if limit := r.URL.Query().Get("limit"); limit != "" {
		req.SetQueryParam("limit", limit)
	}

	res, err := req.Get("/prices/" + strconv.FormatInt(id, 10) + "/history")
	if err != nil {
		g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, resp.Error("Upstream unavailable"))

		return
	}

	relay(w, res)
}

// proxyGet проксирует GET в хранилище, подставляя productID в шаблон пути.
func (g *Gateway) proxyGet(pathFormat string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "gateway.proxy"

		id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid product id"))

			return
		}

		res, err := g.db.R().
			SetContext(r.Context()).
			Get(fmt.Sprintf(pathFormat, id))
		if err != nil {
			g.log.Error("Upstream request failed", slog.String("op", op), sl.Err(err))

			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, resp.Error("Upstream unavailable"))

			return
		}

		relay(w, res)
	}
}

// relay переносит статус и тело ответа хранилища без перекодирования.
func relay(w http.ResponseWriter, res *resty.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode())

	body := res.Body()
	if len(body) == 0 {
		body, _ = json.Marshal(resp.OK())
	}

	_, _ = w.Write(body)
}
