package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricewatch_back_end/internal/models"
)

// Postgres implements Store on a pgx pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) UpsertProduct(ctx context.Context, p UpsertParams) (*models.Product, error) {
	// Metadata merges on null: a fresh scrape without metadata must not wipe
	// what a previous richer scrape stored.
	const q = `
INSERT INTO products (url, title, image, current_price, target_price, user_email, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url) DO UPDATE SET
	title         = EXCLUDED.title,
	image         = EXCLUDED.image,
	current_price = EXCLUDED.current_price,
	target_price  = COALESCE(EXCLUDED.target_price, products.target_price),
	user_email    = COALESCE(EXCLUDED.user_email, products.user_email),
	metadata      = COALESCE(EXCLUDED.metadata, products.metadata),
	updated_at    = now()
RETURNING id, url, title, COALESCE(image, ''), current_price, target_price, user_email, metadata, created_at, updated_at;
`
	var out models.Product
	err := s.db.QueryRow(ctx, q,
		p.URL, p.Title, p.Image, p.CurrentPrice, p.TargetPrice, p.UserEmail, p.Metadata,
	).Scan(&out.ID, &out.URL, &out.Title, &out.Image, &out.CurrentPrice,
		&out.TargetPrice, &out.UserEmail, &out.Metadata, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert product %q: %w", p.URL, err)
	}
	return &out, nil
}

func (s *Postgres) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const q = `
SELECT p.id, p.url, p.title, COALESCE(p.image, ''), p.current_price,
       p.target_price, p.user_email, p.metadata, p.created_at, p.updated_at,
       COALESCE(ph.email_sent, FALSE)
FROM products p
LEFT JOIN LATERAL (
	SELECT email_sent FROM price_history
	WHERE product_id = p.id
	ORDER BY checked_at DESC, id DESC
	LIMIT 1
) ph ON TRUE
WHERE p.id = $1;
`
	var out models.Product
	err := s.db.QueryRow(ctx, q, id).Scan(&out.ID, &out.URL, &out.Title, &out.Image,
		&out.CurrentPrice, &out.TargetPrice, &out.UserEmail, &out.Metadata,
		&out.CreatedAt, &out.UpdatedAt, &out.EmailSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &out, nil
}

func (s *Postgres) ListTrackedProducts(ctx context.Context) ([]models.Product, error) {
	const q = `
SELECT id, url, title, COALESCE(image, ''), current_price, target_price, user_email, metadata, created_at, updated_at
FROM products
ORDER BY id;
`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Image, &p.CurrentPrice,
			&p.TargetPrice, &p.UserEmail, &p.Metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) InsertPriceHistory(ctx context.Context, productID int64, price float64) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO price_history (product_id, price) VALUES ($1, $2) RETURNING id`,
		productID, price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert price history for product %d: %w", productID, err)
	}
	return id, nil
}

func (s *Postgres) GetPriceHistory(ctx context.Context, productID int64) ([]models.PriceHistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, product_id, price, email_sent, checked_at
FROM price_history
WHERE product_id = $1
ORDER BY checked_at ASC, id ASC;
`, productID)
	if err != nil {
		return nil, fmt.Errorf("get price history for product %d: %w", productID, err)
	}
	defer rows.Close()

	var out []models.PriceHistoryEntry
	for rows.Next() {
		var e models.PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Price, &e.EmailSent, &e.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// HasNotifiedPrice reports whether an alert already went out for this exact
// product+price pair. The dedup key is the price value itself, not the row:
// a price that rises and falls back to an already-alerted value stays silent.
func (s *Postgres) HasNotifiedPrice(ctx context.Context, productID int64, price float64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM price_history
	WHERE product_id = $1 AND price = $2 AND email_sent = TRUE
);
`, productID, price).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check notified price for product %d: %w", productID, err)
	}
	return exists, nil
}

func (s *Postgres) MarkEmailSent(ctx context.Context, historyID int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE price_history SET email_sent = TRUE WHERE id = $1`, historyID)
	if err != nil {
		return fmt.Errorf("mark email sent on history %d: %w", historyID, err)
	}
	return nil
}

func (s *Postgres) InsertAlternateOffers(ctx context.Context, productID int64, platform string, offers []models.AlternateOffer) error {
	for _, o := range offers {
		_, err := s.db.Exec(ctx, `
INSERT INTO alternate_offers (product_id, platform, title, url, price)
VALUES ($1, $2, $3, $4, $5);
`, productID, platform, o.Title, o.URL, o.Price)
		if err != nil {
			return fmt.Errorf("insert alternate offer for product %d: %w", productID, err)
		}
	}
	return nil
}

func (s *Postgres) ListAlternateOffers(ctx context.Context, productID int64) ([]models.AlternateOffer, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, product_id, platform, title, url, price, scraped_at
FROM alternate_offers
WHERE product_id = $1
ORDER BY scraped_at DESC, id DESC;
`, productID)
	if err != nil {
		return nil, fmt.Errorf("list alternate offers for product %d: %w", productID, err)
	}
	defer rows.Close()

	var out []models.AlternateOffer
	for rows.Next() {
		var o models.AlternateOffer
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Platform, &o.Title, &o.URL, &o.Price, &o.ScrapedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
