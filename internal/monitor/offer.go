package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pricewatch/internal/events"
	sl "pricewatch/internal/lib/logger"
	"pricewatch/internal/models"
)

// Банки, по которым размечаются офферы. Сравнение без учёта регистра.
var bankNames = []string{
	"hdfc",
	"icici",
	"sbi",
	"axis",
	"kotak",
	"citibank",
	"hsbc",
	"standard chartered",
	"yes bank",
	"indusind",
}

type OfferStore interface {
	Product(ctx context.Context, productID int64) (models.Product, error)
	Offers(ctx context.Context, productID int64) ([]models.OfferRecord, error)
	ReplaceOffers(ctx context.Context, productID int64, offers []models.OfferRecord) error
}

// OfferMonitor сравнивает нормализованные множества офферов и при любой
// разнице заменяет сохранённый набор целиком. Повторный одинаковый скрап
// не приводит ни к записи, ни к алерту.
type OfferMonitor struct {
	log   *slog.Logger
	store OfferStore
	bus   Publisher
}

func NewOfferMonitor(log *slog.Logger, st OfferStore, bus Publisher) *OfferMonitor {
	return &OfferMonitor{
		log:   log,
		store: st,
		bus:   bus,
	}
}

func (m *OfferMonitor) HandleResult(ctx context.Context, payload []byte) {
	const op = "monitor.offer.HandleResult"

	log := m.log.With(slog.String("op", op))

	var res events.ScrapeResult
	if err := json.Unmarshal(payload, &res); err != nil {
		log.Error("invalid scrape result, dropping", sl.Err(err))
		return
	}

	log = log.With(slog.Int64("product_id", res.ProductID))

	if len(res.Data.Offers) == 0 {
		log.Debug("no offers found in scrape result")
		return
	}

	if err := m.process(ctx, res); err != nil {
		log.Error("failed to process offers", sl.Err(err))
	}
}

func (m *OfferMonitor) process(ctx context.Context, res events.ScrapeResult) error {
	const op = "monitor.offer.process"

	prev, err := m.store.Offers(ctx, res.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	prevKeys := make(map[string]struct{}, len(prev))
	for _, offer := range prev {
		prevKeys[normalizeOffer(offer.OfferText)] = struct{}{}
	}

	newKeys := make(map[string]struct{}, len(res.Data.Offers))
	var newOffers []models.Offer
	for _, offer := range res.Data.Offers {
		key := normalizeOffer(offer.Text)
		if _, seen := newKeys[key]; seen {
			continue
		}
		newKeys[key] = struct{}{}

		if _, ok := prevKeys[key]; !ok {
			newOffers = append(newOffers, offer)
		}
	}

	var removedOffers []models.OfferRecord
	seenRemoved := make(map[string]struct{}, len(prev))
	for _, offer := range prev {
		key := normalizeOffer(offer.OfferText)
		if _, ok := newKeys[key]; ok {
			continue
		}
		if _, dup := seenRemoved[key]; dup {
			continue
		}
		seenRemoved[key] = struct{}{}
		removedOffers = append(removedOffers, offer)
	}

	if len(newOffers) == 0 && len(removedOffers) == 0 {
		m.log.Debug("no offer changes", slog.Int64("product_id", res.ProductID))
		return nil
	}

	// набор заменяется целиком, чтобы «текущие офферы» всегда были
	// снимком одного скрапа
	records := make([]models.OfferRecord, 0, len(res.Data.Offers))
	now := time.Now().UTC()
	for _, offer := range res.Data.Offers {
		records = append(records, models.OfferRecord{
			ProductID: res.ProductID,
			OfferText: offer.Text,
			OfferType: offer.Type,
			BankName:  extractBankName(offer.Text),
			CheckedAt: now,
		})
	}

	if err := m.store.ReplaceOffers(ctx, res.ProductID, records); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	product, err := m.store.Product(ctx, res.ProductID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	name := res.Data.Name
	if name == "" {
		name = product.Name
	}

	alert := events.OfferChangeAlert{
		ProductID:     res.ProductID,
		UserID:        product.UserID,
		Platform:      product.Platform,
		ProductName:   name,
		URL:           product.URL,
		NewOffers:     newOffers,
		RemovedOffers: removedOffers,
		TotalOffers:   len(res.Data.Offers),
	}

	if err := m.bus.Publish(ctx, events.ChannelAlertOfferChange, alert); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info("offer change alert triggered",
		slog.Int64("product_id", res.ProductID),
		slog.Int("new", len(newOffers)),
		slog.Int("removed", len(removedOffers)),
	)

	return nil
}

// normalizeOffer приводит текст оффера к стабильному ключу сравнения:
// нижний регистр, обрезка краёв, схлопывание пробельных серий в один пробел.
func normalizeOffer(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func extractBankName(text string) string {
	lower := strings.ToLower(text)
	for _, bank := range bankNames {
		if strings.Contains(lower, bank) {
			return strings.ToUpper(bank)
		}
	}
	return ""
}
