package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"pricewatch/internal/events"
	sl "pricewatch/internal/lib/logger"
)

const (
	AlertTypePriceDrop   = "price-drop"
	AlertTypeOfferChange = "offer-change"
	AlertTypeStockChange = "stock-change"
	AlertTypeManual      = "manual"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Enqueuer кладёт уведомление в durable-очередь для внешнего отправщика.
type Enqueuer interface {
	PublishJSON(ctx context.Context, msg any) error
}

type Service struct {
	log   *slog.Logger
	bus   Publisher
	queue Enqueuer
}

func New(log *slog.Logger, bus Publisher, queue Enqueuer) *Service {
	return &Service{
		log:   log,
		bus:   bus,
		queue: queue,
	}
}

// HandlePriceAlert форматирует алерт о падении цены и рассылает уведомление.
func (s *Service) HandlePriceAlert(ctx context.Context, body []byte) {
	const op = "notifier.HandlePriceAlert"

	log := s.log.With(slog.String("op", op))

	var alert events.PriceChangeAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Error("Failed to decode price alert", sl.Err(err))

		return
	}

	s.send(ctx, log, events.Notification{
		UserID:    alert.UserID,
		Message:   FormatPriceDrop(alert),
		AlertType: AlertTypePriceDrop,
	}, alert.ProductID)
}

func (s *Service) HandleOfferAlert(ctx context.Context, body []byte) {
	const op = "notifier.HandleOfferAlert"

	log := s.log.With(slog.String("op", op))

	var alert events.OfferChangeAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Error("Failed to decode offer alert", sl.Err(err))

		return
	}

	s.send(ctx, log, events.Notification{
		UserID:    alert.UserID,
		Message:   FormatOfferChange(alert),
		AlertType: AlertTypeOfferChange,
	}, alert.ProductID)
}

func (s *Service) HandleStockAlert(ctx context.Context, body []byte) {
	const op = "notifier.HandleStockAlert"

	log := s.log.With(slog.String("op", op))

	var alert events.StockChangeAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		log.Error("Failed to decode stock alert", sl.Err(err))

		return
	}

	s.send(ctx, log, events.Notification{
		UserID:    alert.UserID,
		Message:   FormatStockAlert(alert),
		AlertType: AlertTypeStockChange,
	}, alert.ProductID)
}

// Notify отправляет произвольное уведомление (ручной вызов через HTTP).
func (s *Service) Notify(ctx context.Context, userID, title, message string) error {
	const op = "notifier.Notify"

	if title != "" {
		message = FormatGeneric(title, message)
	}

	notification := events.Notification{
		UserID:    userID,
		Message:   message,
		AlertType: AlertTypeManual,
	}

	if err := s.bus.Publish(ctx, events.ChannelNotificationSend, notification); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.enqueue(ctx, s.log.With(slog.String("op", op)), notification)

	return nil
}

// * уведомление уходит двумя путями: в шину для live-подписчиков
// * и в очередь для внешнего отправщика, которому нужна гарантия доставки
func (s *Service) send(ctx context.Context, log *slog.Logger, n events.Notification, productID int64) {
	if err := s.bus.Publish(ctx, events.ChannelNotificationSend, n); err != nil {
		log.Error("Failed to publish notification", sl.Err(err))

		return
	}

	s.enqueue(ctx, log, n)

	log.Info("Notification sent",
		slog.Int64("product_id", productID),
		slog.String("alert_type", n.AlertType),
	)
}

func (s *Service) enqueue(ctx context.Context, log *slog.Logger, n events.Notification) {
	if s.queue == nil {
		return
	}

	if err := s.queue.PublishJSON(ctx, n); err != nil {
		log.Error("Failed to enqueue notification", sl.Err(err))
	}
}
