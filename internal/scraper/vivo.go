package scraper

import (
	"fmt"
	"math"

	"github.com/PuerkitoBio/goquery"

	"pricewatch/internal/models"
)

type vivoExtractor struct{}

func (vivoExtractor) Platform() models.Platform { return models.PlatformVivo }

var vivoOutOfStockTexts = []string{"out of stock", "not available"}

func (vivoExtractor) Extract(doc *goquery.Document) models.Snapshot {
	snap := models.Snapshot{Stock: inStock()}

	if name, ok := firstText(doc, []string{
		"h1.product-name",
		"h1.title",
		"div.product-title",
		"h1",
	}); ok {
		snap.Name = name
	}

	snap.Price = firstPrice(doc, []string{
		"span.price-value",
		"div.price span",
		"span.current-price",
		"div.product-price",
	})

	for _, sel := range []string{
		"span.original-price",
		"span.mrp",
		"del.price",
	} {
		orig := firstPrice(doc, []string{sel})
		if orig == nil {
			continue
		}
		if snap.Price == nil || *orig != *snap.Price {
			snap.OriginalPrice = orig
			break
		}
	}

	// vivo.com не показывает размер скидки явно, считаем сами.
	if snap.Price != nil && snap.OriginalPrice != nil {
		percent := math.Round((*snap.OriginalPrice - *snap.Price) / *snap.OriginalPrice * 100)
		snap.Discount = fmt.Sprintf("%d%% off", int(percent))
	}

	for _, sel := range []string{
		"button.out-of-stock",
		"div.stock-status",
		"span.availability",
	} {
		text, ok := firstText(doc, []string{sel})
		if !ok {
			continue
		}
		if containsAny(text, vivoOutOfStockTexts) {
			snap.Stock = &models.Stock{InStock: false, Text: text}
			break
		}
	}

	snap.Offers = collectOffers(doc, []string{
		"div.offer-item",
		"li.bank-offer",
		"div.promotion",
	}, 10)

	return snap
}
