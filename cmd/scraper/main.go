package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pricewatch_back_end/internal/config"
	"pricewatch_back_end/internal/scrape"
)

func main() {
	cfg := config.Load()

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/scrape", scrapeHandler(cfg))

	port := os.Getenv("SCRAPER_PORT")
	if port == "" {
		port = "8000"
	}
	log.Println("🚀 Scraper service listening on port", port)
	log.Fatal(r.Run(":" + port))
}

// scrapeHandler mirrors the envelope the backend expects: page-level failures
// travel inside results.error with a 200 status, only a missing url parameter
// is a request error.
func scrapeHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageURL := c.Query("url")
		if pageURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
			return
		}
		wantMetadata := c.Query("extract_metadata") == "true"
		wantAlternates := c.Query("get_alternates") == "true"

		ctx := c.Request.Context()
		log.Println("Scraping product data from URL:", pageURL)

		page, err := scrape.ProductPage(ctx, pageURL)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"results": gin.H{"error": err.Error()}})
			return
		}

		results := gin.H{
			"title": page.Title,
			"price": page.Price,
			"image": page.Image,
		}

		if wantMetadata {
			metadata, err := scrape.ExtractMetadata(ctx, cfg.GeminiAPIKey, page.Title)
			if err != nil {
				log.Printf("[WARN] metadata extraction failed: %v", err)
			} else if metadata != nil {
				results["metadata"] = metadata
			}
		}

		if wantAlternates {
			if alternates := scrape.SearchAlternates(ctx, page.Title); len(alternates) > 0 {
				results["alternate_prices"] = alternates
			}
		}

		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
