package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"pricewatch/internal/events"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
	"pricewatch/internal/store"
)

type StockStore interface {
	Product(ctx context.Context, productID int64) (models.Product, error)
	LatestStock(ctx context.Context, productID int64) (models.StockObservation, error)
	SaveStock(ctx context.Context, productID int64, inStock bool, stockText string) error
}

// StockMonitor пишет каждое наблюдение наличия и алертит только на переходы
// false→true (back_in_stock) и true→false (out_of_stock).
type StockMonitor struct {
	log   *slog.Logger
	store StockStore
	bus   Publisher
}

func NewStockMonitor(log *slog.Logger, st StockStore, bus Publisher) *StockMonitor {
	return &StockMonitor{
		log:   log,
		store: st,
		bus:   bus,
	}
}

func (m *StockMonitor) HandleResult(ctx context.Context, payload []byte) {
	const op = "monitor.stock.HandleResult"

	log := m.log.With(slog.String("op", op))

	var res events.ScrapeResult
	if err := json.Unmarshal(payload, &res); err != nil {
		log.Error("invalid scrape result, dropping", sl.Err(err))
		return
	}

	log = log.With(slog.Int64("product_id", res.ProductID))

	if res.Data.Stock == nil {
		log.Warn("no stock data found in scrape result")
		return
	}

	if err := m.process(ctx, res); err != nil {
		log.Error("failed to process stock", sl.Err(err))
	}
}

func (m *StockMonitor) process(ctx context.Context, res events.ScrapeResult) error {
	const op = "monitor.stock.process"

	current := res.Data.Stock.InStock

	stockText := res.Data.Stock.Text
	if stockText == "" {
		if current {
			stockText = "In Stock"
		} else {
			stockText = "Out of Stock"
		}
	}

	prev, err := m.store.LatestStock(ctx, res.ProductID)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.SaveStock(ctx, res.ProductID, current, stockText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !hasPrev {
		m.log.Info("initial stock status recorded",
			slog.Int64("product_id", res.ProductID),
			slog.Bool("in_stock", current),
		)
		return nil
	}

	if prev.InStock == current {
		return nil
	}

	alertType := events.StockAlertOutOfStock
	if current {
		alertType = events.StockAlertBackInStock
	}

	product, err := m.store.Product(ctx, res.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	name := res.Data.Name
	if name == "" {
		name = product.Name
	}

	alert := events.StockChangeAlert{
		ProductID:   res.ProductID,
		UserID:      product.UserID,
		Platform:    product.Platform,
		ProductName: name,
		URL:         product.URL,
		WasInStock:  prev.InStock,
		IsInStock:   current,
		StockText:   stockText,
		AlertType:   alertType,
	}

	if err := m.bus.Publish(ctx, events.ChannelAlertStockChange, alert); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info("stock alert triggered",
		slog.Int64("product_id", res.ProductID),
		slog.String("alert_type", alertType),
	)

	return nil
}
