package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"SellerWatch/pkg/config"
	"SellerWatch/utils"
)

// Fetcher loads a target URL and returns the rendered HTML. The
// crawler only depends on this interface, so tests can feed it canned
// pages without a browser.
type Fetcher interface {
	FetchHTML(ctx context.Context, targetURL string) (string, error)
}

// RodFetcher renders marketplace pages with a headless browser.
// Stealth pages are used because the marketplace serves a challenge
// page to bare automation.
type RodFetcher struct {
	browser *rod.Browser
	conf    config.ScraperConfig
}

// New launches a browser and returns a fetcher bound to it.
func New(conf config.ScraperConfig) (*RodFetcher, error) {
	utils.CheckBrowserResources()

	u, err := launcher.New().Headless(conf.Headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &RodFetcher{browser: browser, conf: conf}, nil
}

// Close shuts the browser down.
func (f *RodFetcher) Close() error {
	return f.browser.Close()
}

// FetchHTML navigates to the URL, waits for the page to settle, and
// returns its HTML.
func (f *RodFetcher) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return "", fmt.Errorf("failed to open stealth page: %w", err)
	}
	defer page.MustClose()

	page = page.Context(ctx)

	if err := page.Timeout(f.conf.NavTimeout.Std()).Navigate(targetURL); err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", targetURL, err)
	}
	if err := page.Timeout(f.conf.LoadTimeout.Std()).WaitLoad(); err != nil {
		return "", fmt.Errorf("page load wait failed: %w", err)
	}
	// Give late result tiles a moment to settle.
	page.Timeout(5 * time.Second).WaitStable(500 * time.Millisecond)

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}
