package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// pricePatterns match prices embedded in free-form text, most specific first.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)₹\s*[\d,]+(?:\.\d+)?`),
	regexp.MustCompile(`(?i)Rs\.?\s*[\d,]+(?:\.\d+)?`),
	regexp.MustCompile(`(?i)INR\s*[\d,]+(?:\.\d+)?`),
	regexp.MustCompile(`(?i)\b[\d,]+\s*₹`),
	regexp.MustCompile(`(?i)Price:\s*₹?\s*[\d,]+(?:\.\d+)?`),
	regexp.MustCompile(`(?i)MRP:?\s*₹?\s*[\d,]+(?:\.\d+)?`),
}

// CleanPrice turns a scraped price string ("₹1,299.00") into a number.
// Returns nil when no numeric part can be found.
func CleanPrice(raw string) *float64 {
	s := strings.ReplaceAll(raw, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Trim(m, "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ExtractPriceText finds the first price-looking substring in text, keeping
// the original formatting for display.
func ExtractPriceText(text string) string {
	for _, p := range pricePatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
