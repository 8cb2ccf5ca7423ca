package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pricewatch_back_end/internal/models"
	"pricewatch_back_end/internal/scraper"
	"pricewatch_back_end/internal/store"
)

const cacheTTL = 10 * time.Minute

// Handler serves the product tracking API. The scheduler is started lazily on
// the first successful track request via the injected ensureStarted hook.
type Handler struct {
	store         store.Store
	scraper       scraper.Scraper
	cache         *redis.Client
	ensureStarted func()
}

func New(st store.Store, sc scraper.Scraper, cache *redis.Client, ensureStarted func()) *Handler {
	if ensureStarted == nil {
		ensureStarted = func() {}
	}
	return &Handler{store: st, scraper: sc, cache: cache, ensureStarted: ensureStarted}
}

// TrackRequest is the POST /api/products/track payload.
type TrackRequest struct {
	URL         string   `json:"url"`
	Email       *string  `json:"email"`
	TargetPrice *float64 `json:"target_price"`
}

// TrackProduct validates the request, scrapes the page synchronously, upserts
// the product and appends the first history row. Alternates and metadata are
// requested on this path only.
func (h *Handler) TrackProduct(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := validateTrackRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	res, err := h.scraper.Scrape(ctx, req.URL, true, true)
	if err != nil {
		var scrapeErr *scraper.ScrapeError
		if errors.As(err, &scrapeErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to scrape product"})
			return
		}
		log.Printf("TrackProduct: scrape error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	product, err := h.store.UpsertProduct(ctx, store.UpsertParams{
		URL:          req.URL,
		Title:        res.Title,
		Image:        res.Image,
		CurrentPrice: *res.Price,
		TargetPrice:  req.TargetPrice,
		UserEmail:    req.Email,
		Metadata:     res.Metadata,
	})
	if err != nil {
		log.Printf("TrackProduct: upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := h.store.InsertPriceHistory(ctx, product.ID, *res.Price); err != nil {
		log.Printf("TrackProduct: history insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	for platform, offers := range res.AlternatePrices {
		if err := h.store.InsertAlternateOffers(ctx, product.ID, platform, offers); err != nil {
			// Comparison data is best-effort; the track itself already succeeded.
			log.Printf("TrackProduct: alternate offers insert error: %v", err)
		}
	}

	h.InvalidateProduct(product.ID)
	h.ensureStarted()

	enriched, err := h.loadProduct(ctx, product.ID)
	if err != nil {
		log.Printf("TrackProduct: reload error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tracking started for " + req.URL,
		"product": enriched,
	})
}

// GetProduct returns one product with its alert status and alternate offers.
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	cacheKey := "product:" + strconv.FormatInt(id, 10)
	if h.cacheGet(c, cacheKey) {
		return
	}

	product, err := h.loadProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		log.Printf("GetProduct: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"product": product}
	h.cacheSet(cacheKey, body)
	c.JSON(http.StatusOK, body)
}

// GetHistory returns the price history oldest-first.
func (h *Handler) GetHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	cacheKey := "history:" + strconv.FormatInt(id, 10)
	if h.cacheGet(c, cacheKey) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		log.Printf("GetHistory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	history, err := h.store.GetPriceHistory(ctx, id)
	if err != nil {
		log.Printf("GetHistory: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	entries := make([]gin.H, 0, len(history))
	for _, e := range history {
		entries = append(entries, gin.H{"price": e.Price, "checked_at": e.CheckedAt})
	}

	body := gin.H{"history": entries}
	h.cacheSet(cacheKey, body)
	c.JSON(http.StatusOK, body)
}

func (h *Handler) loadProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := h.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	offers, err := h.store.ListAlternateOffers(ctx, id)
	if err != nil {
		return nil, err
	}
	product.AlternatePrices = offers
	return product, nil
}

// InvalidateProduct drops cached responses for a product after any write.
func (h *Handler) InvalidateProduct(id int64) {
	if h.cache == nil {
		return
	}
	ctx := context.Background()
	h.cache.Del(ctx,
		"product:"+strconv.FormatInt(id, 10),
		"history:"+strconv.FormatInt(id, 10),
	)
}

func (h *Handler) cacheGet(c *gin.Context, key string) bool {
	if h.cache == nil {
		return false
	}
	val, err := h.cache.Get(c.Request.Context(), key).Result()
	if err != nil || val == "" {
		return false
	}
	var cached gin.H
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return false
	}
	c.JSON(http.StatusOK, cached)
	return true
}

func (h *Handler) cacheSet(key string, body gin.H) {
	if h.cache == nil {
		return
	}
	if data, err := json.Marshal(body); err == nil {
		h.cache.Set(context.Background(), key, data, cacheTTL)
	}
}
