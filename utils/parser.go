package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// itemIDRegex matches the numeric id segment of a canonical item link,
// e.g. /itm/234567890123 or /itm/some-title/234567890123.
var itemIDRegex = regexp.MustCompile(`/itm/(?:[^/?]+/)?(\d+)`)

// ExtractItemID pulls the stable item identifier out of an item link.
// The id is the only field used for identity and dedup, so a link we
// cannot extract an id from makes the item unusable.
func ExtractItemID(link string) string {
	matches := itemIDRegex.FindStringSubmatch(link)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// CanonicalLink strips tracking query parameters and fragments from an
// item link, leaving the stable canonical form.
func CanonicalLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// soldDateLayouts are the date formats seen in "Sold <date>" captions.
var soldDateLayouts = []string{
	"Jan 2, 2006",
	"Jan-2 2006",
	"2 Jan 2006",
	"Jan 2 2006",
}

// ParseSoldDate converts a sold-date caption like "Sold  Aug 21, 2026"
// into an absolute timestamp in the given location.
func ParseSoldDate(text string, loc *time.Location) (time.Time, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "Sold")
	cleaned = strings.ReplaceAll(cleaned, " ", " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty sold date text")
	}

	for _, layout := range soldDateLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized sold date format: %q", text)
}
