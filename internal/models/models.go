package models

import "time"

// Platform определяет, каким скрапером обрабатывается URL товара.
type Platform string

const (
	PlatformFlipkart Platform = "flipkart"
	PlatformAmazon   Platform = "amazon"
	PlatformVivo     Platform = "vivo"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformFlipkart, PlatformAmazon, PlatformVivo:
		return true
	}
	return false
}

type Product struct {
	ID        int64     `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	Name      string    `json:"name" db:"name"`
	Platform  Platform  `json:"platform" db:"platform"`
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	OfferTypeBank    = "bank"
	OfferTypeGeneral = "general"
)

// Offer — одно предложение со страницы товара, как его увидел скрапер.
type Offer struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type Stock struct {
	InStock bool   `json:"inStock"`
	Text    string `json:"text"`
}

// Snapshot — результат одного скрапа страницы товара. После создания
// не изменяется; поля без значения остаются незаполненными, а не угаданными.
type Snapshot struct {
	Name          string   `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Discount      string   `json:"discount,omitempty"`
	Stock         *Stock   `json:"stock,omitempty"`
	Offers        []Offer  `json:"offers,omitempty"`
}

type PriceObservation struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Price     float64   `json:"price" db:"price"`
	Currency  string    `json:"currency" db:"currency"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}

type OfferRecord struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	OfferText string    `json:"offer_text" db:"offer_text"`
	OfferType string    `json:"offer_type" db:"offer_type"`
	BankName  string    `json:"bank_name" db:"bank_name"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}

type StockObservation struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	InStock   bool      `json:"in_stock" db:"in_stock"`
	StockText string    `json:"stock_text" db:"stock_text"`
	CheckedAt time.Time `json:"checked_at" db:"checked_at"`
}
