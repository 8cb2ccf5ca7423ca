package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL), srv
}

func TestScrapeSuccess(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scrape" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "https://example.com/p" {
			t.Errorf("unexpected url param %q", got)
		}
		if got := r.URL.Query().Get("get_alternates"); got != "true" {
			t.Errorf("unexpected get_alternates %q", got)
		}
		w.Write([]byte(`{"results":{"title":"Widget","price":449.5,"image":"https://img/x.jpg",
			"alternate_prices":{"flipkart":[{"title":"Widget X","url":"https://www.flipkart.com/w","price":"₹450"}]}}}`))
	})
	defer srv.Close()

	res, err := c.Scrape(context.Background(), "https://example.com/p", false, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Widget" {
		t.Errorf("title = %q", res.Title)
	}
	if res.Price == nil || *res.Price != 449.5 {
		t.Errorf("price = %v", res.Price)
	}
	offers := res.AlternatePrices["flipkart"]
	if len(offers) != 1 || offers[0].URL != "https://www.flipkart.com/w" {
		t.Errorf("alternates = %+v", res.AlternatePrices)
	}
}

func TestScrapeMissingImageIsNotFatal(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"title":"Widget","price":449.5,"image":""}}`))
	})
	defer srv.Close()

	res, err := c.Scrape(context.Background(), "https://example.com/p", false, false)
	if err != nil {
		t.Fatalf("scrape with no image must still succeed: %v", err)
	}
	if res.Image != "" {
		t.Errorf("image = %q, want empty", res.Image)
	}
	if res.Title != "Widget" || res.Price == nil || *res.Price != 449.5 {
		t.Errorf("result = %+v", res)
	}
}

func TestScrapeServiceError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"error":"CAPTCHA or block detected"}}`))
	})
	defer srv.Close()

	_, err := c.Scrape(context.Background(), "https://example.com/p", false, false)
	var scrapeErr *ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected *ScrapeError, got %T", err)
	}
	if scrapeErr.Reason != "CAPTCHA or block detected" {
		t.Errorf("reason = %q", scrapeErr.Reason)
	}
}

func TestScrapeMissingPriceIsHardFailure(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"title":"Widget","price":null,"image":""}}`))
	})
	defer srv.Close()

	_, err := c.Scrape(context.Background(), "https://example.com/p", false, false)
	var scrapeErr *ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected *ScrapeError, got %T", err)
	}
}

func TestScrapeMissingTitleIsHardFailure(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":{"title":"","price":10,"image":""}}`))
	})
	defer srv.Close()

	if _, err := c.Scrape(context.Background(), "https://example.com/p", false, false); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestScrapeNon200(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	if _, err := c.Scrape(context.Background(), "https://example.com/p", false, false); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestScrapeUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")

	_, err := c.Scrape(context.Background(), "https://example.com/p", false, false)
	var scrapeErr *ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected *ScrapeError, got %T", err)
	}
}
