package crawler

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"SellerWatch/internal/extractor"
	"SellerWatch/internal/fetcher"
	"SellerWatch/internal/models"
	"SellerWatch/pkg/config"
	"SellerWatch/utils"
)

// CrawlError reports that all attempts to crawl one seller failed.
// The orchestrator skips the seller and continues the cycle.
type CrawlError struct {
	Handle string
	Kind   models.MonitorKind
	Cause  error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl failed for seller %s (%s): %v", e.Handle, e.Kind, e.Cause)
}

func (e *CrawlError) Unwrap() error { return e.Cause }

// Crawler produces the current set of relevant items for one tracked
// seller by walking the marketplace's search result pages.
type Crawler struct {
	fetcher   fetcher.Fetcher
	baseURL   string
	window    int // recency window for sold items, in calendar days
	maxPages  int
	attempts  int
	retryWait time.Duration
	loc       *time.Location

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New builds a crawler paced by the monitor config.
func New(f fetcher.Fetcher, marketplace config.MarketplaceConfig, monitor config.MonitorConfig) *Crawler {
	return &Crawler{
		fetcher:   f,
		baseURL:   marketplace.BaseURL,
		window:    monitor.SoldWindowDays,
		maxPages:  monitor.MaxPages,
		attempts:  monitor.CrawlAttempts,
		retryWait: monitor.CrawlRetryWait.Std(),
		loc:       time.Local,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Crawl dispatches on the seller's monitor kind.
func (c *Crawler) Crawl(ctx context.Context, seller models.TrackedSeller) ([]models.Item, error) {
	switch seller.Kind {
	case models.KindListings:
		return c.crawlListings(ctx, seller)
	case models.KindSales:
		return c.crawlSales(ctx, seller)
	}
	return nil, &CrawlError{Handle: seller.Handle, Kind: seller.Kind, Cause: fmt.Errorf("unknown monitor kind")}
}

// crawlListings fetches the single newly-listed result page and keeps
// every item carrying the new-listing marker. No pagination.
func (c *Crawler) crawlListings(ctx context.Context, seller models.TrackedSeller) ([]models.Item, error) {
	pageURL := c.listingsURL(seller.Handle)

	htmlContent, err := c.fetchWithRetry(ctx, pageURL)
	if err != nil {
		return nil, &CrawlError{Handle: seller.Handle, Kind: seller.Kind, Cause: err}
	}

	items, err := extractor.ParseListings(htmlContent, c.baseURL)
	if err != nil {
		return nil, &CrawlError{Handle: seller.Handle, Kind: seller.Kind, Cause: err}
	}
	return items, nil
}

// crawlSales paginates the sold/completed results, most recent first,
// collecting items sold within the recency window. Pagination stops as
// soon as the tail item of a page falls outside the window: later
// pages are strictly older, so nothing past that point can qualify.
func (c *Crawler) crawlSales(ctx context.Context, seller models.TrackedSeller) ([]models.Item, error) {
	cutoff := c.windowCutoff()
	pageURL := c.salesURL(seller.Handle)

	var collected []models.Item
	for pageNum := 1; pageNum <= c.maxPages; pageNum++ {
		htmlContent, err := c.fetchWithRetry(ctx, pageURL)
		if err != nil {
			if pageNum == 1 {
				return nil, &CrawlError{Handle: seller.Handle, Kind: seller.Kind, Cause: err}
			}
			// A later page failing to load ends the crawl; the partial
			// result is treated as complete.
			log.Printf("Seller %s: page %d failed to load, keeping partial result: %v", seller.Handle, pageNum, err)
			return collected, nil
		}

		page, err := extractor.ParseSales(htmlContent, c.baseURL)
		if err != nil {
			if pageNum == 1 {
				return nil, &CrawlError{Handle: seller.Handle, Kind: seller.Kind, Cause: err}
			}
			log.Printf("Seller %s: page %d failed to parse, keeping partial result: %v", seller.Handle, pageNum, err)
			return collected, nil
		}
		if len(page.Items) == 0 {
			return collected, nil
		}

		tailInWindow := false
		for _, item := range page.Items {
			in := c.inWindow(item, cutoff)
			if in {
				collected = append(collected, item)
			}
			tailInWindow = in
		}

		if !tailInWindow || page.NextPageURL == "" {
			return collected, nil
		}
		pageURL = page.NextPageURL
	}
	return collected, nil
}

// inWindow classifies one sold item against the recency cutoff. A
// sold-date caption that fails to parse counts as in-window so a
// parsing defect never silently drops sales.
func (c *Crawler) inWindow(item models.Item, cutoff time.Time) bool {
	soldTime, err := utils.ParseSoldDate(item.SoldAt, c.loc)
	if err != nil {
		log.Printf("Could not parse sold date %q for item %s, treating as recent: %v", item.SoldAt, item.ID, err)
		return true
	}
	return !soldTime.Before(cutoff)
}

// windowCutoff returns midnight of the oldest calendar day still
// inside the recency window.
func (c *Crawler) windowCutoff() time.Time {
	now := c.now().In(c.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return today.AddDate(0, 0, -c.window)
}

// fetchWithRetry wraps one page load in the bounded retry policy:
// up to attempts tries with a fixed wait in between.
func (c *Crawler) fetchWithRetry(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		htmlContent, err := c.fetcher.FetchHTML(ctx, pageURL)
		if err == nil {
			return htmlContent, nil
		}
		lastErr = err
		log.Printf("Fetch attempt %d/%d failed for %s: %v", attempt, c.attempts, pageURL, err)
		if attempt < c.attempts {
			c.sleep(c.retryWait)
		}
	}
	return "", fmt.Errorf("all %d fetch attempts failed: %w", c.attempts, lastErr)
}

// listingsURL builds the newly-listed search page for a seller.
func (c *Crawler) listingsURL(handle string) string {
	q := url.Values{}
	q.Set("_ssn", handle)
	q.Set("_sop", "10") // newly listed first
	q.Set("_ipg", "60")
	return fmt.Sprintf("%s/sch/i.html?%s", c.baseURL, q.Encode())
}

// salesURL builds page 1 of the sold/completed results for a seller.
func (c *Crawler) salesURL(handle string) string {
	q := url.Values{}
	q.Set("_ssn", handle)
	q.Set("LH_Sold", "1")
	q.Set("LH_Complete", "1")
	q.Set("_sop", "13") // most recent first
	q.Set("_ipg", "60")
	return fmt.Sprintf("%s/sch/i.html?%s", c.baseURL, q.Encode())
}
