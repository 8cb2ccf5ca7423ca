package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// PageResult is what a single product page yields. Price is nil when the page
// rendered but no price could be parsed.
type PageResult struct {
	Title string
	Price *float64
	Image string
}

var (
	ErrBlocked     = errors.New("CAPTCHA or block detected")
	ErrUnavailable = errors.New("Product page unavailable or not found")
)

// ProductPage drives a headless browser through an Amazon product page and
// extracts title, price and image. Marketplace pages are JS-rendered, so a
// plain HTTP fetch is not enough here.
func ProductPage(ctx context.Context, pageURL string) (*PageResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	navCtx, cancelNav := context.WithTimeout(browserCtx, 20*time.Second)
	defer cancelNav()

	var finalURL, content string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(pageURL),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("Timeout navigating to %s", pageURL)
		}
		return nil, fmt.Errorf("Failed to navigate: %v", err)
	}
	if finalURL != pageURL {
		log.Printf("[REDIRECT] Navigated from %s to %s", pageURL, finalURL)
	}

	lower := strings.ToLower(content)
	if strings.Contains(content, "Enter the characters you see below") ||
		strings.Contains(content, "not a robot") ||
		strings.Contains(lower, "captcha") {
		log.Printf("[BLOCKED] CAPTCHA or block detected on %s", finalURL)
		return nil, ErrBlocked
	}
	if strings.Contains(lower, "unavailable") ||
		strings.Contains(content, "404") ||
		strings.Contains(lower, "not found") {
		log.Printf("[UNAVAILABLE] Product page unavailable or not found: %s", finalURL)
		return nil, ErrUnavailable
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible("#productTitle", chromedp.ByID)); err != nil {
		return nil, errors.New("Timeout waiting for product title")
	}

	var title string
	extractCtx, cancelExtract := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancelExtract()
	if err := chromedp.Run(extractCtx, chromedp.Text("#productTitle", &title, chromedp.ByID)); err != nil {
		return nil, fmt.Errorf("Failed to extract product title: %v", err)
	}

	// Image and price nodes are absent on some listings; chromedp waits for a
	// selector to appear, so each gets its own short deadline and a missing
	// node must not fail the whole scrape.
	var image string
	var hasImage bool
	imageCtx, cancelImage := context.WithTimeout(browserCtx, 5*time.Second)
	defer cancelImage()
	if err := chromedp.Run(imageCtx,
		chromedp.AttributeValue("#landingImage", "src", &image, &hasImage, chromedp.ByID),
	); err != nil {
		log.Printf("[WARN] Failed to extract image on %s: %v", finalURL, err)
	}

	var priceText string
	priceCtx, cancelPrice := context.WithTimeout(browserCtx, 5*time.Second)
	defer cancelPrice()
	if err := chromedp.Run(priceCtx,
		chromedp.Text("span.a-price span.a-offscreen", &priceText, chromedp.ByQuery),
	); err != nil {
		log.Printf("[WARN] Failed to extract price on %s: %v", finalURL, err)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("Product title not found")
	}

	res := &PageResult{Title: title, Image: image}
	if priceText != "" {
		res.Price = CleanPrice(priceText)
	}
	return res, nil
}
