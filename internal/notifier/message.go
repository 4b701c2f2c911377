package notifier

import (
	"fmt"
	"time"

	"SellerWatch/internal/models"
)

// Message is the webhook payload: Discord-compatible embed JSON.
type Message struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is one rich card inside a message.
type Embed struct {
	Title     string          `json:"title,omitempty"`
	URL       string          `json:"url,omitempty"`
	Color     int             `json:"color,omitempty"`
	Fields    []EmbedField    `json:"fields,omitempty"`
	Thumbnail *EmbedThumbnail `json:"thumbnail,omitempty"`
	Footer    *EmbedFooter    `json:"footer,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// EmbedField is a labeled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedThumbnail points at the item image.
type EmbedThumbnail struct {
	URL string `json:"url"`
}

// EmbedFooter carries the seller identity.
type EmbedFooter struct {
	Text string `json:"text"`
}

const (
	colorListing = 0x2ECC71 // green
	colorSale    = 0xE67E22 // orange
)

// BuildItemMessage renders one item as a webhook message for the
// seller it was found under.
func BuildItemMessage(seller models.TrackedSeller, item models.Item) Message {
	embed := Embed{
		Title:     item.Title,
		URL:       item.Link,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &EmbedFooter{Text: fmt.Sprintf("%s (@%s)", seller.StoreName, seller.Handle)},
	}

	if item.Price != "" {
		embed.Fields = append(embed.Fields, EmbedField{Name: "Price", Value: item.Price, Inline: true})
	}
	switch seller.Kind {
	case models.KindSales:
		embed.Color = colorSale
		if item.SoldAt != "" {
			embed.Fields = append(embed.Fields, EmbedField{Name: "Sold", Value: item.SoldAt, Inline: true})
		}
	default:
		embed.Color = colorListing
		if item.ListedAt != "" {
			embed.Fields = append(embed.Fields, EmbedField{Name: "Listed", Value: item.ListedAt, Inline: true})
		}
	}
	if item.ImageURL != "" {
		embed.Thumbnail = &EmbedThumbnail{URL: item.ImageURL}
	}

	return Message{Embeds: []Embed{embed}}
}
