package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pricewatch/internal/events"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

type Scraper interface {
	Scrape(ctx context.Context, url string, platform models.Platform) (models.Snapshot, error)
}

// Service принимает scrape:request, скрапит и публикует scrape:result либо
// scrape:error. Повторов нет: неудавшийся скрап — потерянный цикл.
type Service struct {
	log    *slog.Logger
	engine Scraper
	bus    Publisher
}

func NewService(log *slog.Logger, engine Scraper, bus Publisher) *Service {
	return &Service{
		log:    log,
		engine: engine,
		bus:    bus,
	}
}

func (s *Service) HandleRequest(ctx context.Context, payload []byte) {
	const op = "scraper.HandleRequest"

	log := s.log.With(slog.String("op", op))

	var req events.ScrapeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Error("invalid scrape request, dropping", sl.Err(err))
		return
	}

	log = log.With(
		slog.Int64("product_id", req.ProductID),
		slog.String("request_id", req.RequestID),
	)
	log.Info("scrape request received", slog.String("platform", string(req.Platform)))

	snap, err := s.engine.Scrape(ctx, req.URL, req.Platform)
	if err != nil {
		log.Error("scrape failed", sl.Err(err))

		if pubErr := s.bus.Publish(ctx, events.ChannelScrapeError, events.ScrapeError{
			ProductID: req.ProductID,
			URL:       req.URL,
			Platform:  req.Platform,
			RequestID: req.RequestID,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		}); pubErr != nil {
			log.Error("failed to publish scrape error", sl.Err(pubErr))
		}

		return
	}

	if err := s.bus.Publish(ctx, events.ChannelScrapeResult, events.ScrapeResult{
		ProductID: req.ProductID,
		URL:       req.URL,
		Platform:  req.Platform,
		RequestID: req.RequestID,
		Data:      snap,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		log.Error("failed to publish scrape result", sl.Err(err))
		return
	}

	log.Info("scrape completed")
}
