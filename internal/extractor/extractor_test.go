package extractor

import (
	"fmt"
	"strings"
	"testing"
)

const baseURL = "https://www.ebay.com"

func listingCard(id, title string, newListing bool) string {
	marker := ""
	if newListing {
		marker = `<div class="s-item__title--tagblock"><span>New Listing</span></div>`
	}
	return fmt.Sprintf(`
	<li class="s-item">
		%s
		<a class="s-item__link" href="%s/itm/%s?hash=item%s">
			<div class="s-item__title">%s</div>
		</a>
		<span class="s-item__price">$25.00</span>
		<div class="s-item__image"><img src="https://i.example/%s.jpg"></div>
		<span class="s-item__listingDate">Aug 22, 2026</span>
	</li>`, marker, baseURL, id, id, title, id)
}

func soldCard(id, title, soldText string) string {
	return fmt.Sprintf(`
	<li class="s-item">
		<a class="s-item__link" href="%s/itm/%s?hash=item%s">
			<div class="s-item__title">%s</div>
		</a>
		<span class="s-item__price">$40.00</span>
		<div class="s-item__caption"><span class="POSITIVE">%s</span></div>
	</li>`, baseURL, id, id, title, soldText)
}

func resultPage(next string, cards ...string) string {
	pagination := ""
	if next != "" {
		pagination = fmt.Sprintf(`<a class="pagination__next" href="%s">Next</a>`, next)
	}
	return fmt.Sprintf(`<html><body><ul class="srp-results">%s</ul>%s</body></html>`,
		strings.Join(cards, "\n"), pagination)
}

func TestParseListingsKeepsOnlyMarkedItems(t *testing.T) {
	page := resultPage("",
		listingCard("111", "Vintage Camera", true),
		listingCard("222", "Old Stock Lens", false),
		listingCard("333", "Film Scanner", true),
	)

	items, err := ParseListings(page, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 marked items, got %d", len(items))
	}
	if items[0].ID != "111" || items[1].ID != "333" {
		t.Fatalf("wrong items extracted: %v", items)
	}
	if items[0].Title != "Vintage Camera" {
		t.Errorf("title not extracted: %q", items[0].Title)
	}
	if items[0].Link != baseURL+"/itm/111" {
		t.Errorf("link not canonicalized: %q", items[0].Link)
	}
	if items[0].Price != "$25.00" {
		t.Errorf("price not extracted: %q", items[0].Price)
	}
}

func TestParseListingsDropsUnusableItemsSilently(t *testing.T) {
	missingLink := `
	<li class="s-item">
		<div class="s-item__title--tagblock"><span>New Listing</span></div>
		<div class="s-item__title">No Link Item</div>
	</li>`
	missingTitle := `
	<li class="s-item">
		<div class="s-item__title--tagblock"><span>New Listing</span></div>
		<a class="s-item__link" href="` + baseURL + `/itm/444"><div class="s-item__title"></div></a>
	</li>`
	badID := `
	<li class="s-item">
		<div class="s-item__title--tagblock"><span>New Listing</span></div>
		<a class="s-item__link" href="` + baseURL + `/sch/somewhere"><div class="s-item__title">Weird Link</div></a>
	</li>`
	page := resultPage("", missingLink, missingTitle, badID, listingCard("555", "Good Item", true))

	items, err := ParseListings(page, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "555" {
		t.Fatalf("expected only the usable item, got %v", items)
	}
}

func TestParseSalesExtractsSoldCaptionAndNextPage(t *testing.T) {
	next := baseURL + "/sch/i.html?_ssn=store&_pgn=2"
	page := resultPage(next,
		soldCard("111", "Sold Thing", "Sold  Aug 21, 2026"),
		soldCard("222", "Another Sold Thing", "Sold  Aug 20, 2026"),
	)

	result, err := ParseSales(page, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[0].SoldAt != "Sold  Aug 21, 2026" {
		t.Errorf("sold caption not extracted: %q", result.Items[0].SoldAt)
	}
	if result.NextPageURL != next {
		t.Errorf("next page URL = %q; want %q", result.NextPageURL, next)
	}
}

func TestParseSalesLastPageHasNoNextURL(t *testing.T) {
	page := resultPage("", soldCard("111", "Sold Thing", "Sold Aug 21, 2026"))

	result, err := ParseSales(page, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NextPageURL != "" {
		t.Errorf("expected empty next page URL, got %q", result.NextPageURL)
	}
}

func TestParseListingsPlaceholderCardIgnored(t *testing.T) {
	placeholder := `
	<li class="s-item">
		<div class="s-item__title--tagblock"><span>New Listing</span></div>
		<a class="s-item__link" href="` + baseURL + `/itm/123"><div class="s-item__title">Shop on eBay</div></a>
	</li>`
	page := resultPage("", placeholder)

	items, err := ParseListings(page, baseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("placeholder card must be dropped, got %v", items)
	}
}
