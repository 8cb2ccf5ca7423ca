package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const searchResultsHTML = `
<html><body>
<div class="result">
	<a href="https://www.flipkart.com/widget-pro">Widget Pro 3000 latest model</a>
	<span>Best deal ₹1,299 with free delivery</span>
</div>
<div class="result">
	<a href="https://www.flipkart.com/widget-lite">Widget Lite edition</a>
	<span>no price listed</span>
</div>
<div class="result">
	<a href="https://www.amazon.in/other">Some other site result</a>
	<span>₹999</span>
</div>
<div class="result">
	<a href="https://www.flipkart.com/x">abc</a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(searchResultsHTML))
	if err != nil {
		t.Fatal(err)
	}

	offers := parseSearchResults(doc, "https://www.flipkart.com/")

	// Only flipkart links with real titles count, and priced results win.
	if len(offers) != 1 {
		t.Fatalf("offers = %+v, want exactly the priced result", offers)
	}
	if offers[0].URL != "https://www.flipkart.com/widget-pro" {
		t.Errorf("url = %q", offers[0].URL)
	}
	if offers[0].Price == nil || *offers[0].Price != "₹1,299" {
		t.Errorf("price = %v", offers[0].Price)
	}
}

func TestParseSearchResultsNoPrices(t *testing.T) {
	html := `<html><body>
		<a href="https://www.meesho.com/widget">Widget listing on Meesho</a>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	offers := parseSearchResults(doc, "https://www.meesho.com/")
	if len(offers) != 1 {
		t.Fatalf("offers = %+v", offers)
	}
	if offers[0].Price != nil {
		t.Errorf("price = %v, want nil", *offers[0].Price)
	}
}

func TestShortenQuery(t *testing.T) {
	title := "Widget Pro 3000 Deluxe Edition With Extra Features And More"
	if got := shortenQuery(title, 3); got != "Widget Pro 3000" {
		t.Errorf("shortenQuery = %q", got)
	}
	if got := shortenQuery("Short", 6); got != "Short" {
		t.Errorf("shortenQuery = %q", got)
	}
}
