package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"pricewatch/internal/models"
)

type flipkartExtractor struct{}

func (flipkartExtractor) Platform() models.Platform { return models.PlatformFlipkart }

var flipkartOutOfStockTexts = []string{"out of stock", "currently unavailable", "sold out"}

func (flipkartExtractor) Extract(doc *goquery.Document) models.Snapshot {
	snap := models.Snapshot{Stock: inStock()}

	if name, ok := firstText(doc, []string{
		"span.B_NuCI",
		"h1.yhB1nd",
		"h1 span",
	}); ok {
		snap.Name = name
	}

	snap.Price = firstPrice(doc, []string{
		"div._30jeq3._16Jk6d",
		"div._30jeq3",
		"div._16Jk6d",
	})

	snap.OriginalPrice = firstPrice(doc, []string{"div._3I9_wc._2p6lqe"})

	if discount, ok := firstText(doc, []string{"div._3Ay6sb._31Dcoz"}); ok {
		snap.Discount = discount
	}

	// Flipkart не всегда отдаёт отдельный бейдж наличия, поэтому статус
	// определяется по ключевым словам во всём тексте страницы.
	if containsAny(doc.Find("body").Text(), flipkartOutOfStockTexts) {
		snap.Stock = &models.Stock{InStock: false, Text: "Out of Stock"}
	}

	snap.Offers = collectOffers(doc, []string{"li._3j4Zjq", "div._2ZdXDB"}, 0)

	return snap
}
