package models

import (
	"encoding/json"
	"time"
)

// Product is a URL registered for periodic price monitoring. The owner email
// and target price are optional; a product without them is still checked every
// cycle but never triggers an alert.
type Product struct {
	ID           int64           `json:"id"`
	URL          string          `json:"url"`
	Title        string          `json:"title"`
	Image        string          `json:"image,omitempty"`
	CurrentPrice float64         `json:"current_price"`
	TargetPrice  *float64        `json:"target_price,omitempty"`
	UserEmail    *string         `json:"user_email,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// EmailSent mirrors the latest price_history row; it is what the API
	// reports as the alert status for the current price.
	EmailSent bool `json:"email_sent"`

	AlternatePrices []AlternateOffer `json:"alternate_prices,omitempty"`
}

// PriceHistoryEntry is one observed price point. Rows are immutable except for
// EmailSent, which flips to true at most once when a drop alert goes out.
type PriceHistoryEntry struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Price     float64   `json:"price"`
	EmailSent bool      `json:"email_sent"`
	CheckedAt time.Time `json:"checked_at"`
}

// AlternateOffer is a same-product listing found on another retail platform.
// Prices stay as scraped text ("₹1,299") since platforms format them freely.
type AlternateOffer struct {
	ID        int64     `json:"id,omitempty"`
	ProductID int64     `json:"product_id,omitempty"`
	Platform  string    `json:"platform"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Price     *string   `json:"price,omitempty"`
	ScrapedAt time.Time `json:"scraped_at,omitempty"`
}
