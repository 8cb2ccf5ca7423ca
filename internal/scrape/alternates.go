package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricewatch_back_end/internal/models"
)

const (
	searchEndpoint   = "https://duckduckgo.com/html/"
	maxOffersPerSite = 5
	searchUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// platforms lists the retail sites searched for alternate offers.
var platforms = []struct {
	Name   string
	Site   string
	Prefix string
}{
	{"flipkart", "flipkart.com", "https://www.flipkart.com/"},
	{"meesho", "meesho.com", "https://www.meesho.com/"},
}

var searchClient = &http.Client{Timeout: 15 * time.Second}

// SearchAlternates looks up the product title on other retail platforms via
// DuckDuckGo site-scoped searches. Failures are logged and skipped; the result
// only contains platforms that answered.
func SearchAlternates(ctx context.Context, title string) map[string][]models.AlternateOffer {
	query := shortenQuery(title, 6)
	out := make(map[string][]models.AlternateOffer)

	for _, p := range platforms {
		offers, err := searchPlatform(ctx, query, p.Site, p.Prefix)
		if err != nil {
			log.Printf("[WARN] %s search failed: %v", p.Name, err)
			continue
		}
		// Retry once with a shorter query when the first pass found nothing.
		if len(offers) == 0 {
			offers, err = searchPlatform(ctx, shortenQuery(title, 3), p.Site, p.Prefix)
			if err != nil || len(offers) == 0 {
				continue
			}
		}
		for i := range offers {
			offers[i].Platform = p.Name
		}
		out[p.Name] = offers
	}
	return out
}

func searchPlatform(ctx context.Context, query, site, prefix string) ([]models.AlternateOffer, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s site:%s", query, site))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := searchClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseSearchResults(doc, prefix), nil
}

// parseSearchResults walks result links matching the platform URL prefix and
// pulls a price out of the surrounding text when one is visible.
func parseSearchResults(doc *goquery.Document, prefix string) []models.AlternateOffer {
	var offers []models.AlternateOffer

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, prefix) {
			return true
		}
		title := strings.TrimSpace(a.Text())
		if len(title) < 5 {
			return true
		}

		surrounding := strings.Join(strings.Fields(a.Parent().Text()), " ")
		if surrounding == "" {
			surrounding = title
		}
		priceText := ExtractPriceText(surrounding)
		if priceText == "" {
			priceText = ExtractPriceText(title)
		}

		if len(title) > 100 {
			title = title[:100]
		}
		offer := models.AlternateOffer{Title: title, URL: href}
		if priceText != "" {
			offer.Price = &priceText
		}
		offers = append(offers, offer)

		return len(offers) < maxOffersPerSite
	})

	// Prefer results that actually carry a price.
	var priced []models.AlternateOffer
	for _, o := range offers {
		if o.Price != nil {
			priced = append(priced, o)
		}
	}
	if len(priced) > 0 {
		return priced
	}
	return offers
}

func shortenQuery(title string, words int) string {
	fields := strings.Fields(title)
	if len(fields) > words {
		fields = fields[:words]
	}
	return strings.Join(fields, " ")
}
