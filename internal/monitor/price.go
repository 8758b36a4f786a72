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

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

type PriceStore interface {
	Product(ctx context.Context, productID int64) (models.Product, error)
	UpdateProductName(ctx context.Context, productID int64, name string) error
	LatestPrice(ctx context.Context, productID int64) (models.PriceObservation, error)
	SavePrice(ctx context.Context, productID int64, price float64, currency string) error
}

// PriceMonitor пишет каждое наблюдение цены и алертит на падение, равное
// порогу или больше. Первая цена продукта — только baseline, рост цены
// никогда не алертит.
type PriceMonitor struct {
	log       *slog.Logger
	store     PriceStore
	bus       Publisher
	threshold float64
	currency  string
}

func NewPriceMonitor(log *slog.Logger, st PriceStore, bus Publisher, threshold float64, currency string) *PriceMonitor {
	return &PriceMonitor{
		log:       log,
		store:     st,
		bus:       bus,
		threshold: threshold,
		currency:  currency,
	}
}

func (m *PriceMonitor) HandleResult(ctx context.Context, payload []byte) {
	const op = "monitor.price.HandleResult"

	log := m.log.With(slog.String("op", op))

	var res events.ScrapeResult
	if err := json.Unmarshal(payload, &res); err != nil {
		log.Error("invalid scrape result, dropping", sl.Err(err))
		return
	}

	log = log.With(slog.Int64("product_id", res.ProductID))

	if res.Data.Price == nil {
		log.Warn("no price found in scrape result")
		return
	}

	if err := m.process(ctx, res); err != nil {
		log.Error("failed to process price", sl.Err(err))
	}
}

func (m *PriceMonitor) process(ctx context.Context, res events.ScrapeResult) error {
	const op = "monitor.price.process"

	newPrice := *res.Data.Price

	prev, err := m.store.LatestPrice(ctx, res.ProductID)
	hasPrev := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	// наблюдение пишется безусловно, решение об алерте — отдельно
	if err := m.store.SavePrice(ctx, res.ProductID, newPrice, m.currency); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.Data.Name != "" {
		if err := m.store.UpdateProductName(ctx, res.ProductID, res.Data.Name); err != nil {
			m.log.Warn("failed to update product name", sl.Err(err))
		}
	}

	if !hasPrev {
		m.log.Info("initial price recorded",
			slog.Int64("product_id", res.ProductID),
			slog.Float64("price", newPrice),
		)
		return nil
	}

	diff := prev.Price - newPrice
	percentChange := diff / prev.Price * 100

	m.log.Info("price compared",
		slog.Int64("product_id", res.ProductID),
		slog.String("percent_change", fmt.Sprintf("%.2f", percentChange)),
	)

	if percentChange < m.threshold {
		return nil
	}

	product, err := m.store.Product(ctx, res.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	name := res.Data.Name
	if name == "" {
		name = product.Name
	}

	alert := events.PriceChangeAlert{
		ProductID:     res.ProductID,
		UserID:        product.UserID,
		Platform:      product.Platform,
		OldPrice:      prev.Price,
		NewPrice:      newPrice,
		Difference:    diff,
		PercentChange: fmt.Sprintf("%.2f", percentChange),
		ProductName:   name,
		URL:           product.URL,
	}

	if err := m.bus.Publish(ctx, events.ChannelAlertPriceChange, alert); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info("price drop alert triggered", slog.Int64("product_id", res.ProductID))

	return nil
}
