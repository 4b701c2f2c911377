package monitor

import (
	"context"

	"SellerWatch/internal/models"
	"SellerWatch/internal/notifier"
)

// SellerCrawler abstracts the crawl layer so cycles are testable
// without a browser.
type SellerCrawler interface {
	Crawl(ctx context.Context, seller models.TrackedSeller) ([]models.Item, error)
}

// Dispatcher abstracts the notification layer.
type Dispatcher interface {
	Notify(destination string, msg notifier.Message) bool
}

// SellerStore abstracts the tracked-seller persistence layer.
type SellerStore interface {
	GetAll() ([]models.TrackedSeller, error)
	Save(seller models.TrackedSeller) error
}
