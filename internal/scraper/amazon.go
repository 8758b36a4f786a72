package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricewatch/internal/models"
)

type amazonExtractor struct{}

func (amazonExtractor) Platform() models.Platform { return models.PlatformAmazon }

var amazonUnavailableTexts = []string{"out of stock", "currently unavailable", "not available"}

func (amazonExtractor) Extract(doc *goquery.Document) models.Snapshot {
	snap := models.Snapshot{Stock: inStock()}

	if name, ok := firstText(doc, []string{
		"#productTitle",
		"h1#title",
		"span#productTitle",
	}); ok {
		snap.Name = name
	}

	snap.Price = firstPrice(doc, []string{
		"span.a-price-whole",
		"span#priceblock_ourprice",
		"span#priceblock_dealprice",
		"span.a-price span.a-offscreen",
	})

	// MRP считается найденной, только если отличается от текущей цены:
	// часть селекторов совпадает с блоком самой цены.
	for _, sel := range []string{
		"span.a-price.a-text-price span.a-offscreen",
		"span.priceBlockStrikePriceString",
		"span#priceblock_saleprice",
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

	if discount, ok := firstText(doc, []string{"span.savingsPercentage"}); ok {
		snap.Discount = discount
	}

	if avail, ok := firstText(doc, []string{"#availability span"}); ok {
		if containsAny(strings.ToLower(avail), amazonUnavailableTexts) {
			snap.Stock = &models.Stock{InStock: false, Text: avail}
		} else {
			snap.Stock = &models.Stock{InStock: true, Text: avail}
		}
	}

	snap.Offers = collectOffers(doc, []string{"#sopp-bankOffers li", "#promotions li"}, 10)

	return snap
}
