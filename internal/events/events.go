package events

import (
	"time"

	"pricewatch/internal/models"
)

// Каналы шины сообщений. Доставка at-most-once: подписчик, который был
// офлайн в момент публикации, сообщение не получит.
const (
	ChannelScrapeRequest = "scrape:request"
	ChannelScrapeResult  = "scrape:result"
	ChannelScrapeError   = "scrape:error"

	ChannelAlertPriceChange = "alert:price-change"
	ChannelAlertOfferChange = "alert:offer-change"
	ChannelAlertStockChange = "alert:stock-change"

	ChannelNotificationSend = "notification:send"
)

const (
	StockAlertBackInStock = "back_in_stock"
	StockAlertOutOfStock  = "out_of_stock"
)

type ScrapeRequest struct {
	ProductID int64           `json:"productId"`
	URL       string          `json:"url"`
	Platform  models.Platform `json:"platform"`
	RequestID string          `json:"requestId"`
}

type ScrapeResult struct {
	ProductID int64           `json:"productId"`
	URL       string          `json:"url"`
	Platform  models.Platform `json:"platform"`
	RequestID string          `json:"requestId"`
	Data      models.Snapshot `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type ScrapeError struct {
	ProductID int64           `json:"productId"`
	URL       string          `json:"url"`
	Platform  models.Platform `json:"platform"`
	RequestID string          `json:"requestId"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

type PriceChangeAlert struct {
	ProductID  int64           `json:"productId"`
	UserID     string          `json:"userId"`
	Platform   models.Platform `json:"platform"`
	OldPrice   float64         `json:"oldPrice"`
	NewPrice   float64         `json:"newPrice"`
	Difference float64         `json:"difference"`
	// PercentChange округляется до двух знаков на стороне монитора.
	PercentChange string `json:"percentChange"`
	ProductName   string `json:"productName"`
	URL           string `json:"url"`
}

type OfferChangeAlert struct {
	ProductID     int64                `json:"productId"`
	UserID        string               `json:"userId"`
	Platform      models.Platform      `json:"platform"`
	ProductName   string               `json:"productName"`
	URL           string               `json:"url"`
	NewOffers     []models.Offer       `json:"newOffers"`
	RemovedOffers []models.OfferRecord `json:"removedOffers"`
	TotalOffers   int                  `json:"totalOffers"`
}

type StockChangeAlert struct {
	ProductID   int64           `json:"productId"`
	UserID      string          `json:"userId"`
	Platform    models.Platform `json:"platform"`
	ProductName string          `json:"productName"`
	URL         string          `json:"url"`
	WasInStock  bool            `json:"wasInStock"`
	IsInStock   bool            `json:"isInStock"`
	StockText   string          `json:"stockText"`
	AlertType   string          `json:"alertType"`
}

type Notification struct {
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	AlertType string `json:"alertType"`
}
