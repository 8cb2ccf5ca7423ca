package scheduler

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"pricewatch_back_end/internal/models"
	"pricewatch_back_end/internal/notifier"
	"pricewatch_back_end/internal/scraper"
	"pricewatch_back_end/internal/store"
)

// PriceCheckJob walks every tracked product, records the current price and
// fires a drop alert when the target threshold is newly crossed. Errors are
// isolated per product: one broken page never aborts the cycle.
type PriceCheckJob struct {
	store    store.Store
	scraper  scraper.Scraper
	notifier notifier.Notifier

	running atomic.Bool

	// called after each cycle write so cached API responses don't go stale
	onWrite func(productID int64)
}

func NewPriceCheckJob(st store.Store, sc scraper.Scraper, nt notifier.Notifier) *PriceCheckJob {
	return &PriceCheckJob{store: st, scraper: sc, notifier: nt}
}

// OnWrite registers a callback invoked with each product id the cycle wrote
// history for. Used for cache invalidation.
func (j *PriceCheckJob) OnWrite(fn func(productID int64)) {
	j.onWrite = fn
}

// RunCycle performs one full pass. If a previous cycle is still in flight the
// call is skipped rather than stacked on top of it.
func (j *PriceCheckJob) RunCycle(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		log.Println("scheduler: previous cycle still running, skipping tick")
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	products, err := j.store.ListTrackedProducts(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tracked products: %v", err)
		return
	}
	log.Printf("scheduler: checking %d tracked product(s)", len(products))

	for _, p := range products {
		select {
		case <-ctx.Done():
			log.Println("scheduler: cycle interrupted, context cancelled")
			return
		default:
		}

		if err := j.checkProduct(ctx, p); err != nil {
			log.Printf("scheduler: product %d (%s): %v", p.ID, p.URL, err)
		}
	}

	log.Printf("scheduler: cycle finished in %v", time.Since(start))
}

// checkProduct works off the row the cycle listed; a target or email changed
// by a track request landing mid-cycle is picked up on the next cycle.
func (j *PriceCheckJob) checkProduct(ctx context.Context, p models.Product) error {
	// The scheduled path skips metadata and alternates; they are only
	// refreshed when the user tracks the product again.
	res, err := j.scraper.Scrape(ctx, p.URL, false, false)
	if err != nil {
		return err
	}

	price := *res.Price
	historyID, err := j.store.InsertPriceHistory(ctx, p.ID, price)
	if err != nil {
		return err
	}
	if j.onWrite != nil {
		j.onWrite(p.ID)
	}

	if p.TargetPrice == nil || price > *p.TargetPrice || p.UserEmail == nil {
		return nil
	}

	already, err := j.store.HasNotifiedPrice(ctx, p.ID, price)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	if err := j.notifier.SendPriceDropEmail(ctx, *p.UserEmail, p, price); err != nil {
		// Non-fatal: the flag stays unset so the same price value remains
		// eligible on a later cycle.
		log.Printf("scheduler: product %d: %v", p.ID, err)
		return nil
	}

	if err := j.store.MarkEmailSent(ctx, historyID); err != nil {
		return err
	}
	log.Printf("scheduler: price drop alert sent for product %d (%.2f <= %.2f)", p.ID, price, *p.TargetPrice)
	return nil
}
