package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"SellerWatch/internal/models"
	"SellerWatch/utils"
)

// ResultPage is the extraction result for one search result page.
type ResultPage struct {
	Items []models.Item
	// NextPageURL is the href of the next-page control, or "" when the
	// page has no such control (last page).
	NextPageURL string
}

// parseDocument turns raw HTML into a goquery document. Parsing with
// x/net/html first keeps malformed marketplace markup from aborting
// the whole page.
func parseDocument(htmlContent string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ParseListings extracts every result carrying the "New Listing"
// marker from a newly-listed search page. Results missing a title, a
// resolvable link, or an extractable id are dropped silently.
func ParseListings(htmlContent, baseURL string) ([]models.Item, error) {
	doc, err := parseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	var items []models.Item
	doc.Find("li.s-item, div.s-item").Each(func(_ int, card *goquery.Selection) {
		marker := strings.TrimSpace(card.Find(".s-item__title--tagblock span, .LIGHT_HIGHLIGHT").First().Text())
		if !strings.EqualFold(marker, "New Listing") {
			return
		}
		item, ok := itemFromCard(card, baseURL)
		if !ok {
			return
		}
		item.ListedAt = strings.TrimSpace(card.Find(".s-item__listingDate, .s-item__dynamic").First().Text())
		items = append(items, item)
	})
	return items, nil
}

// ParseSales extracts every result from one page of sold/completed
// results together with the next-page control. The sold-date caption
// is carried as display text; the crawler decides what is recent
// enough to keep.
func ParseSales(htmlContent, baseURL string) (*ResultPage, error) {
	doc, err := parseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	page := &ResultPage{}
	doc.Find("li.s-item, div.s-item").Each(func(_ int, card *goquery.Selection) {
		item, ok := itemFromCard(card, baseURL)
		if !ok {
			return
		}
		item.SoldAt = strings.TrimSpace(card.Find(".s-item__caption .POSITIVE, .s-item__title--tagblock .POSITIVE").First().Text())
		page.Items = append(page.Items, item)
	})

	if next, ok := doc.Find("a.pagination__next").First().Attr("href"); ok {
		page.NextPageURL = resolveLink(next, baseURL)
	}
	return page, nil
}

// itemFromCard pulls the common item fields out of one result card.
func itemFromCard(card *goquery.Selection, baseURL string) (models.Item, bool) {
	var item models.Item

	title := strings.TrimSpace(card.Find(".s-item__title").First().Text())
	title = strings.TrimPrefix(title, "New Listing")
	title = strings.TrimSpace(title)
	if title == "" || strings.EqualFold(title, "Shop on eBay") {
		return item, false
	}

	href, ok := card.Find("a.s-item__link").First().Attr("href")
	if !ok || href == "" {
		return item, false
	}
	link := utils.CanonicalLink(resolveLink(href, baseURL))
	id := utils.ExtractItemID(link)
	if id == "" {
		return item, false
	}

	item.ID = id
	item.Title = title
	item.Link = link
	item.Price = strings.TrimSpace(card.Find(".s-item__price").First().Text())
	if src, ok := card.Find(".s-item__image img").First().Attr("src"); ok {
		item.ImageURL = src
	}
	return item, true
}

func resolveLink(href, baseURL string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
