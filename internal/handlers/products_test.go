package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"pricewatch_back_end/internal/models"
	"pricewatch_back_end/internal/scraper"
	"pricewatch_back_end/internal/store"
)

type fakeStore struct {
	products   map[int64]*models.Product
	history    map[int64][]models.PriceHistoryEntry
	alternates map[int64][]models.AlternateOffer
	nextID     int64
	upserts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[int64]*models.Product),
		history:    make(map[int64][]models.PriceHistoryEntry),
		alternates: make(map[int64][]models.AlternateOffer),
	}
}

func (s *fakeStore) UpsertProduct(ctx context.Context, p store.UpsertParams) (*models.Product, error) {
	s.upserts++
	for _, existing := range s.products {
		if existing.URL == p.URL {
			existing.Title = p.Title
			existing.Image = p.Image
			existing.CurrentPrice = p.CurrentPrice
			if p.TargetPrice != nil {
				existing.TargetPrice = p.TargetPrice
			}
			if p.UserEmail != nil {
				existing.UserEmail = p.UserEmail
			}
			if p.Metadata != nil {
				existing.Metadata = p.Metadata
			}
			cp := *existing
			return &cp, nil
		}
	}
	s.nextID++
	prod := &models.Product{
		ID:           s.nextID,
		URL:          p.URL,
		Title:        p.Title,
		Image:        p.Image,
		CurrentPrice: p.CurrentPrice,
		TargetPrice:  p.TargetPrice,
		UserEmail:    p.UserEmail,
		Metadata:     p.Metadata,
	}
	s.products[prod.ID] = prod
	cp := *prod
	return &cp, nil
}

func (s *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	if h := s.history[id]; len(h) > 0 {
		cp.EmailSent = h[len(h)-1].EmailSent
	}
	return &cp, nil
}

func (s *fakeStore) ListTrackedProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeStore) InsertPriceHistory(ctx context.Context, productID int64, price float64) (int64, error) {
	s.nextID++
	s.history[productID] = append(s.history[productID], models.PriceHistoryEntry{
		ID: s.nextID, ProductID: productID, Price: price,
	})
	return s.nextID, nil
}

func (s *fakeStore) GetPriceHistory(ctx context.Context, productID int64) ([]models.PriceHistoryEntry, error) {
	return s.history[productID], nil
}

func (s *fakeStore) HasNotifiedPrice(ctx context.Context, productID int64, price float64) (bool, error) {
	return false, nil
}

func (s *fakeStore) MarkEmailSent(ctx context.Context, historyID int64) error { return nil }

func (s *fakeStore) InsertAlternateOffers(ctx context.Context, productID int64, platform string, offers []models.AlternateOffer) error {
	for _, o := range offers {
		o.Platform = platform
		o.ProductID = productID
		s.alternates[productID] = append(s.alternates[productID], o)
	}
	return nil
}

func (s *fakeStore) ListAlternateOffers(ctx context.Context, productID int64) ([]models.AlternateOffer, error) {
	return s.alternates[productID], nil
}

type fakeScraper struct {
	result *scraper.Result
	err    error
	calls  int
}

func (f *fakeScraper) Scrape(ctx context.Context, productURL string, wantMetadata, wantAlternates bool) (*scraper.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/products/track", h.TrackProduct)
	r.GET("/api/products/history/:id", h.GetHistory)
	r.GET("/api/products/:id", h.GetProduct)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func scrapeResult(price float64) *scraper.Result {
	p := price
	alt := "₹460"
	return &scraper.Result{
		Title: "Widget Pro",
		Price: &p,
		Image: "https://img/x.jpg",
		AlternatePrices: map[string][]models.AlternateOffer{
			"flipkart": {{Title: "Widget Pro X", URL: "https://www.flipkart.com/w", Price: &alt}},
		},
	}
}

func TestTrackInvalidURL(t *testing.T) {
	st := newFakeStore()
	h := New(st, &fakeScraper{}, nil, nil)
	r := newRouter(h)

	for _, u := range []string{"", "notaurl", "ftp://example.com/x"} {
		w := doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": u})
		if w.Code != http.StatusBadRequest {
			t.Errorf("url %q: status = %d, want 400", u, w.Code)
		}
	}
	if st.upserts != 0 {
		t.Errorf("expected no upserts on invalid input, got %d", st.upserts)
	}
}

func TestTrackInvalidEmail(t *testing.T) {
	h := New(newFakeStore(), &fakeScraper{}, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodPost, "/api/products/track",
		gin.H{"url": "https://example.com/p", "email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTrackInvalidTargetPrice(t *testing.T) {
	h := New(newFakeStore(), &fakeScraper{}, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodPost, "/api/products/track",
		gin.H{"url": "https://example.com/p", "target_price": -5})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestTrackScrapeFailureCreatesNoProduct(t *testing.T) {
	st := newFakeStore()
	sc := &fakeScraper{err: &scraper.ScrapeError{URL: "https://example.com/p", Reason: "no usable title or price"}}
	h := New(st, sc, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": "https://example.com/p"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if st.upserts != 0 {
		t.Errorf("expected no product row after scrape failure, got %d upserts", st.upserts)
	}
}

func TestTrackSuccess(t *testing.T) {
	st := newFakeStore()
	started := false
	h := New(st, &fakeScraper{result: scrapeResult(449.5)}, nil, func() { started = true })
	r := newRouter(h)

	w := doJSON(t, r, http.MethodPost, "/api/products/track",
		gin.H{"url": "https://example.com/p", "email": "a@b.com", "target_price": 400})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !started {
		t.Error("expected scheduler ensureStarted to be invoked")
	}

	var resp struct {
		Message string         `json:"message"`
		Product models.Product `json:"product"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" {
		t.Error("expected a message")
	}
	if resp.Product.Title != "Widget Pro" || resp.Product.CurrentPrice != 449.5 {
		t.Errorf("product = %+v", resp.Product)
	}
	if resp.Product.EmailSent {
		t.Error("email_sent must be false right after tracking")
	}
	if len(resp.Product.AlternatePrices) != 1 {
		t.Errorf("alternate_prices = %+v", resp.Product.AlternatePrices)
	}
	if got := len(st.history[resp.Product.ID]); got != 1 {
		t.Errorf("expected 1 history row after track, got %d", got)
	}
}

func TestTrackMetadataMergeOnNull(t *testing.T) {
	st := newFakeStore()
	sc := &fakeScraper{result: scrapeResult(100)}
	sc.result.Metadata = json.RawMessage(`{"brand":"Acme"}`)
	h := New(st, sc, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": "https://example.com/p"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// Second track with no metadata must keep the stored value.
	sc.result = scrapeResult(90)
	w = doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": "https://example.com/p"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if string(st.products[1].Metadata) != `{"brand":"Acme"}` {
		t.Errorf("metadata = %s, want preserved value", st.products[1].Metadata)
	}

	// A new non-null metadata value overwrites.
	sc.result = scrapeResult(80)
	sc.result.Metadata = json.RawMessage(`{"brand":"Other"}`)
	w = doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": "https://example.com/p"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if string(st.products[1].Metadata) != `{"brand":"Other"}` {
		t.Errorf("metadata = %s, want overwritten value", st.products[1].Metadata)
	}
}

func TestGetProductNotFound(t *testing.T) {
	h := New(newFakeStore(), &fakeScraper{}, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodGet, "/api/products/42", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetProductBadID(t *testing.T) {
	h := New(newFakeStore(), &fakeScraper{}, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodGet, "/api/products/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetHistoryOldestFirst(t *testing.T) {
	st := newFakeStore()
	h := New(st, &fakeScraper{result: scrapeResult(100)}, nil, nil)
	r := newRouter(h)

	doJSON(t, r, http.MethodPost, "/api/products/track", gin.H{"url": "https://example.com/p"})
	st.InsertPriceHistory(context.Background(), 1, 90)
	st.InsertPriceHistory(context.Background(), 1, 80)

	w := doJSON(t, r, http.MethodGet, "/api/products/history/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		History []struct {
			Price float64 `json:"price"`
		} `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []float64{100, 90, 80}
	if len(resp.History) != len(want) {
		t.Fatalf("history length = %d, want %d", len(resp.History), len(want))
	}
	for i, e := range resp.History {
		if e.Price != want[i] {
			t.Errorf("history[%d].price = %v, want %v", i, e.Price, want[i])
		}
	}
}

func TestGetHistoryUnknownProduct(t *testing.T) {
	h := New(newFakeStore(), &fakeScraper{}, nil, nil)
	r := newRouter(h)

	w := doJSON(t, r, http.MethodGet, "/api/products/history/9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
