package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pricewatch/internal/models"
)

// ErrNotFound — у продукта ещё нет запрошенного наблюдения (404 от хранилища).
var ErrNotFound = errors.New("store: not found")

// Client — минимальный CRUD-контракт REST-хранилища. 404 и пустые ответы
// трактуются как «наблюдений ещё нет», а не как ошибка.
type Client struct {
	http *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout),
	}
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	const op = "store.Products"

	var out []models.Product

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return out, nil
}

func (c *Client) Product(ctx context.Context, productID int64) (models.Product, error) {
	const op = "store.Product"

	var out models.Product

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/products/%d", productID))
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.Product{}, ErrNotFound
	}
	if resp.IsError() {
		return models.Product{}, fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return out, nil
}

func (c *Client) UpdateProductName(ctx context.Context, productID int64, name string) error {
	const op = "store.UpdateProductName"

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name}).
		Put(fmt.Sprintf("/products/%d", productID))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return nil
}

func (c *Client) LatestPrice(ctx context.Context, productID int64) (models.PriceObservation, error) {
	const op = "store.LatestPrice"

	var out models.PriceObservation

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/prices/%d/latest", productID))
	if err != nil {
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.PriceObservation{}, ErrNotFound
	}
	if resp.IsError() {
		return models.PriceObservation{}, fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return out, nil
}

func (c *Client) SavePrice(ctx context.Context, productID int64, price float64, currency string) error {
	const op = "store.SavePrice"

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"price": price, "currency": currency}).
		Post(fmt.Sprintf("/prices/%d", productID))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return nil
}

func (c *Client) Offers(ctx context.Context, productID int64) ([]models.OfferRecord, error) {
	const op = "store.Offers"

	var out []models.OfferRecord

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/offers/%d", productID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return out, nil
}

// ReplaceOffers целиком заменяет текущий набор офферов продукта одним
// запросом: хранилище удаляет старые записи и пишет новые атомарно.
func (c *Client) ReplaceOffers(ctx context.Context, productID int64, offers []models.OfferRecord) error {
	const op = "store.ReplaceOffers"

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"offers": offers}).
		Post(fmt.Sprintf("/offers/%d", productID))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return nil
}

func (c *Client) LatestStock(ctx context.Context, productID int64) (models.StockObservation, error) {
	const op = "store.LatestStock"

	var out models.StockObservation

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/stock/%d", productID))
	if err != nil {
		return models.StockObservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return models.StockObservation{}, ErrNotFound
	}
	if resp.IsError() {
		return models.StockObservation{}, fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return out, nil
}

func (c *Client) SaveStock(ctx context.Context, productID int64, inStock bool, stockText string) error {
	const op = "store.SaveStock"

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"in_stock": inStock, "stock_text": stockText}).
		Post(fmt.Sprintf("/stock/%d", productID))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	return nil
}
