package store

import (
	"context"
	"encoding/json"
	"errors"

	"pricewatch_back_end/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UpsertParams carries everything a track request knows about a product.
// Nil pointers mean "leave the stored value alone" for metadata; target price
// and email are written as given (clearing them requires an explicit empty
// value from the caller).
type UpsertParams struct {
	URL          string
	Title        string
	Image        string
	CurrentPrice float64
	TargetPrice  *float64
	UserEmail    *string
	Metadata     json.RawMessage
}

// Store is the persistence boundary shared by the API handlers and the
// price-check job.
type Store interface {
	UpsertProduct(ctx context.Context, p UpsertParams) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListTrackedProducts(ctx context.Context) ([]models.Product, error)

	InsertPriceHistory(ctx context.Context, productID int64, price float64) (int64, error)
	GetPriceHistory(ctx context.Context, productID int64) ([]models.PriceHistoryEntry, error)
	HasNotifiedPrice(ctx context.Context, productID int64, price float64) (bool, error)
	MarkEmailSent(ctx context.Context, historyID int64) error

	InsertAlternateOffers(ctx context.Context, productID int64, platform string, offers []models.AlternateOffer) error
	ListAlternateOffers(ctx context.Context, productID int64) ([]models.AlternateOffer, error)
}
