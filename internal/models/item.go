package models

// Item is one result-page entry produced by a crawl. Items live only
// for the duration of a cycle; after diffing, only the ID survives
// inside the seller's known set.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Link     string `json:"link"`
	ImageURL string `json:"image_url,omitempty"`

	// Display text of the kind-specific date: the "listed on" caption
	// for listings, the "Sold <date>" caption for sales.
	ListedAt string `json:"listed_at,omitempty"`
	SoldAt   string `json:"sold_at,omitempty"`
}
