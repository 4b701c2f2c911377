package monitor

import (
	"context"
	"log"
	"time"

	"SellerWatch/internal/differ"
	"SellerWatch/internal/models"
	"SellerWatch/internal/notifier"
)

// Orchestrator drives one monitoring cycle: for every tracked seller,
// crawl, diff against the known set, notify each new item, and persist
// the updated state. Everything runs sequentially on purpose — one
// crawl and one webhook send at a time keeps the marketplace and the
// destination under their abuse thresholds.
type Orchestrator struct {
	store        SellerStore
	crawler      SellerCrawler
	dispatcher   Dispatcher
	destinations map[models.MonitorKind]string
	itemSpacing  time.Duration
	sellerPause  time.Duration

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewOrchestrator wires the cycle's collaborators together.
// destinations maps each monitor kind to its webhook URL; a kind with
// no entry (or an empty URL) is skipped entirely.
func NewOrchestrator(store SellerStore, crawler SellerCrawler, dispatcher Dispatcher,
	destinations map[models.MonitorKind]string, itemSpacing, sellerPause time.Duration) *Orchestrator {
	return &Orchestrator{
		store:        store,
		crawler:      crawler,
		dispatcher:   dispatcher,
		destinations: destinations,
		itemSpacing:  itemSpacing,
		sellerPause:  sellerPause,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// RunCycle executes one full pass over all tracked sellers. No failure
// inside a cycle is fatal: a seller that cannot be crawled, notified,
// or persisted is logged and the cycle moves on.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	log.Println("--- Starting Monitoring Cycle ---")
	started := o.now()

	sellers, err := o.store.GetAll()
	if err != nil {
		log.Printf("Could not load tracked sellers, skipping cycle: %v", err)
		return
	}
	if len(sellers) == 0 {
		log.Println("No sellers are tracked. Cycle finished.")
		return
	}
	if o.destinations[models.KindListings] == "" && o.destinations[models.KindSales] == "" {
		log.Println("No webhook destination configured for any kind. Cycle finished.")
		return
	}

	byKind := make(map[models.MonitorKind][]models.TrackedSeller)
	for _, s := range sellers {
		byKind[s.Kind] = append(byKind[s.Kind], s)
	}

	for _, kind := range []models.MonitorKind{models.KindListings, models.KindSales} {
		destination := o.destinations[kind]
		if destination == "" {
			if len(byKind[kind]) > 0 {
				log.Printf("No webhook destination for kind %q, skipping its %d sellers.", kind, len(byKind[kind]))
			}
			continue
		}
		for _, seller := range byKind[kind] {
			if ctx.Err() != nil {
				log.Println("Cycle canceled, stopping before next seller.")
				return
			}
			o.processSeller(ctx, destination, seller)
			// Fixed pause between sellers regardless of outcome, to
			// stay under the marketplace's rate limits.
			o.sleep(o.sellerPause)
		}
	}

	log.Printf("--- Monitoring Cycle Finished (took %v) ---", o.now().Sub(started).Round(time.Second))
}

// processSeller runs crawl → diff → notify → persist for one seller.
func (o *Orchestrator) processSeller(ctx context.Context, destination string, seller models.TrackedSeller) {
	log.Printf("Checking seller %s (%s)...", seller.Handle, seller.Kind)

	items, err := o.crawler.Crawl(ctx, seller)
	if err != nil {
		log.Printf("Skipping seller %s this cycle: %v", seller.Handle, err)
		return
	}

	fresh, updated := differ.Diff(seller.KnownItemIDs, items)
	log.Printf("Seller %s: %d items crawled, %d new.", seller.Handle, len(items), len(fresh))

	for i, item := range fresh {
		if i > 0 {
			// Minimum spacing between sends to the same destination,
			// independent of the dispatcher's own rate-limit recovery.
			o.sleep(o.itemSpacing)
		}
		if !o.dispatcher.Notify(destination, notifier.BuildItemMessage(seller, item)) {
			// The id stays out of the known set so the item is retried
			// on the next cycle (at-least-once delivery).
			log.Printf("Notification failed for item %s, it will be retried next cycle.", item.ID)
			delete(updated, item.ID)
		}
	}

	seller.KnownItemIDs = updated
	checked := o.now()
	seller.LastCheckedAt = &checked
	if err := o.store.Save(seller); err != nil {
		// Previous durable state is retained; the same items will
		// surface as new again next cycle.
		log.Printf("Could not persist state for seller %s: %v", seller.Handle, err)
	}
}

// CheckResult reports a read-only single-seller probe.
type CheckResult struct {
	Crawled int `json:"crawled"`
	New     int `json:"new"`
}

// CheckSeller crawls one seller and diffs the result without
// persisting anything or sending any notification.
func (o *Orchestrator) CheckSeller(ctx context.Context, seller models.TrackedSeller) (CheckResult, error) {
	items, err := o.crawler.Crawl(ctx, seller)
	if err != nil {
		return CheckResult{}, err
	}
	fresh, _ := differ.Diff(seller.KnownItemIDs, items)
	return CheckResult{Crawled: len(items), New: len(fresh)}, nil
}
