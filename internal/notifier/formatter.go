package notifier

import (
	"fmt"
	"strings"

	"pricewatch/internal/events"
)

const maxURLLen = 80

// FormatPriceDrop собирает текст уведомления о падении цены в формате
// WhatsApp-разметки (жирный через звёздочки).
func FormatPriceDrop(a events.PriceChangeAlert) string {
	var b strings.Builder

	b.WriteString("🔔 *PRICE DROP ALERT!*\n\n")
	fmt.Fprintf(&b, "📦 *Product:* %s\n", productName(a.ProductName))
	fmt.Fprintf(&b, "📱 *Platform:* %s\n\n", strings.ToUpper(string(a.Platform)))
	b.WriteString("💰 *Price Update:*\n")
	fmt.Fprintf(&b, "   Old: ₹%.2f\n", a.OldPrice)
	fmt.Fprintf(&b, "   New: ₹%.2f\n\n", a.NewPrice)
	fmt.Fprintf(&b, "💸 *You Save:* ₹%.2f (%s%% OFF)\n\n", a.Difference, a.PercentChange)
	fmt.Fprintf(&b, "🔗 *Link:* %s...\n\n", truncateURL(a.URL))
	b.WriteString("⚡ Hurry! Grab this deal now!")

	return b.String()
}

func FormatOfferChange(a events.OfferChangeAlert) string {
	var b strings.Builder

	b.WriteString("🏦 *BANK OFFERS UPDATE!*\n\n")
	fmt.Fprintf(&b, "📦 *Product:* %s\n", productName(a.ProductName))
	fmt.Fprintf(&b, "📱 *Platform:* %s\n\n", strings.ToUpper(string(a.Platform)))

	if len(a.NewOffers) > 0 {
		fmt.Fprintf(&b, "✨ *NEW OFFERS (%d):*\n", len(a.NewOffers))
		for i, offer := range a.NewOffers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, offer.Text)
		}
		b.WriteString("\n")
	}

	if len(a.RemovedOffers) > 0 {
		fmt.Fprintf(&b, "❌ *EXPIRED OFFERS (%d):*\n", len(a.RemovedOffers))
		for i, offer := range a.RemovedOffers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, offer.OfferText)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "📊 *Total Active Offers:* %d\n\n", a.TotalOffers)
	fmt.Fprintf(&b, "🔗 *Link:* %s...", truncateURL(a.URL))

	return b.String()
}

func FormatStockAlert(a events.StockChangeAlert) string {
	var b strings.Builder

	if a.AlertType == events.StockAlertBackInStock {
		b.WriteString("📦 *BACK IN STOCK!*\n\n")
		b.WriteString("🎉 *Great News!*\n")
		fmt.Fprintf(&b, "%s is now available!\n\n", productName(a.ProductName))
		fmt.Fprintf(&b, "📱 *Platform:* %s\n", strings.ToUpper(string(a.Platform)))
		fmt.Fprintf(&b, "✅ *Status:* %s\n\n", a.StockText)
		fmt.Fprintf(&b, "🔗 *Link:* %s...\n\n", truncateURL(a.URL))
		b.WriteString("⚡ Order now before it goes out of stock again!")

		return b.String()
	}

	b.WriteString("📦 *STOCK UPDATE*\n\n")
	fmt.Fprintf(&b, "%s\n\n", productName(a.ProductName))
	fmt.Fprintf(&b, "📱 *Platform:* %s\n", strings.ToUpper(string(a.Platform)))
	b.WriteString("❌ *Status:* Out of Stock\n\n")
	b.WriteString("Don't worry, we'll notify you when it's back! 🔔")

	return b.String()
}

func FormatGeneric(title, message string) string {
	return fmt.Sprintf("🤖 *%s*\n\n%s", title, message)
}

func productName(name string) string {
	if name == "" {
		return "Product"
	}
	return name
}

func truncateURL(url string) string {
	if len(url) > maxURLLen {
		return url[:maxURLLen]
	}
	return url
}
