// Package differ decides which crawled items are new for a seller.
// It is pure: no I/O, deterministic for any given input.
package differ

import "SellerWatch/internal/models"

// Diff compares a freshly crawled item sequence against the seller's
// known-item set. It returns the items not yet known, in crawl order,
// and the updated known set. The input set is never mutated and ids
// are never removed from it.
func Diff(known models.IDSet, crawled []models.Item) ([]models.Item, models.IDSet) {
	updated := known.Clone()

	var fresh []models.Item
	for _, item := range crawled {
		if updated.Has(item.ID) {
			continue
		}
		updated[item.ID] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh, updated
}
