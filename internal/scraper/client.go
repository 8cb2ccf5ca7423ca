package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pricewatch_back_end/internal/models"
)

// ScrapeError means the scraping service failed or returned unusable data.
// A missing title or price is a hard failure, not a transient one — there is
// no retry at this level.
type ScrapeError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scrape %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("scrape %s: %s", e.URL, e.Reason)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// Result is what the scraping service extracted from a product page.
type Result struct {
	Title           string                             `json:"title"`
	Price           *float64                           `json:"price"`
	Image           string                             `json:"image"`
	Metadata        json.RawMessage                    `json:"metadata,omitempty"`
	AlternatePrices map[string][]models.AlternateOffer `json:"alternate_prices,omitempty"`
}

// Scraper is the client-side contract of the scraping service.
type Scraper interface {
	Scrape(ctx context.Context, productURL string, wantMetadata, wantAlternates bool) (*Result, error)
}

// Client calls the external scraping service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		// Page automation on the far side is slow; give it room but never
		// let a hung scrape stall a whole cycle.
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

type envelope struct {
	Results struct {
		Result
		Error string `json:"error"`
	} `json:"results"`
}

func (c *Client) Scrape(ctx context.Context, productURL string, wantMetadata, wantAlternates bool) (*Result, error) {
	u, err := url.Parse(c.baseURL + "/scrape")
	if err != nil {
		return nil, &ScrapeError{URL: productURL, Reason: "bad scraper base url", Err: err}
	}
	q := u.Query()
	q.Set("url", productURL)
	q.Set("extract_metadata", strconv.FormatBool(wantMetadata))
	q.Set("get_alternates", strconv.FormatBool(wantAlternates))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ScrapeError{URL: productURL, Reason: "build request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ScrapeError{URL: productURL, Reason: "scraper unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ScrapeError{URL: productURL, Reason: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ScrapeError{URL: productURL, Reason: fmt.Sprintf("scraper returned %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ScrapeError{URL: productURL, Reason: "decode response", Err: err}
	}
	if env.Results.Error != "" {
		return nil, &ScrapeError{URL: productURL, Reason: env.Results.Error}
	}
	if env.Results.Title == "" || env.Results.Price == nil {
		return nil, &ScrapeError{URL: productURL, Reason: "no usable title or price"}
	}

	r := env.Results.Result
	return &r, nil
}
