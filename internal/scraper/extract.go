package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricewatch/internal/models"
)

// firstText возвращает текст первого селектора из списка, который нашёл
// элемент с непустым текстом. Порядок кандидатов значим.
func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		text := strings.TrimSpace(node.Text())
		if text != "" {
			return text, true
		}
	}

	return "", false
}

// firstPrice — первый кандидат, чей текст после чистки валют и разделителей
// парсится в число, побеждает. Если ни один не подошёл, цена не угадывается.
func firstPrice(doc *goquery.Document, selectors []string) *float64 {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		if price, ok := parsePrice(node.Text()); ok {
			return &price
		}
	}

	return nil
}

var priceCleaner = strings.NewReplacer("₹", "", "$", "", ",", "")

func parsePrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(priceCleaner.Replace(text))
	if cleaned == "" {
		return 0, false
	}

	// страницы иногда показывают "1 299.00"
	cleaned = strings.Join(strings.Fields(cleaned), "")

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return price, true
}

// collectOffers собирает все совпадения по каждой группе селекторов, без
// дедупликации: дубликаты схлопывает diff на стороне монитора офферов.
func collectOffers(doc *goquery.Document, selectors []string, minLen int) []models.Offer {
	var offers []models.Offer

	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, node *goquery.Selection) {
			text := strings.TrimSpace(node.Text())
			if text == "" || len(text) <= minLen {
				return
			}

			offers = append(offers, models.Offer{
				Text: text,
				Type: classifyOffer(text),
			})
		})
	}

	return offers
}

func classifyOffer(text string) string {
	if strings.Contains(strings.ToLower(text), "bank") {
		return models.OfferTypeBank
	}
	return models.OfferTypeGeneral
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func inStock() *models.Stock {
	return &models.Stock{InStock: true, Text: "In Stock"}
}
