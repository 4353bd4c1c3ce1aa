package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeFetcher fetches documents through headless Chromium, for listings
// that are assembled client-side and arrive empty over plain HTTP.
type ChromeFetcher struct {
	timeout time.Duration
}

// NewChromeFetcher creates a ChromeFetcher with the default timeout.
func NewChromeFetcher() *ChromeFetcher {
	return &ChromeFetcher{timeout: Timeout}
}

// Fetch navigates to url, waits for the document body, and returns the
// rendered markup.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	cctx, timeoutCancel := context.WithTimeout(cctx, f.timeout)
	defer timeoutCancel()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(cctx, tasks); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", url, err)
	}
	return []byte(html), nil
}
