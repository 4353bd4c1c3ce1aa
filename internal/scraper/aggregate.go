package scraper

import (
	"context"

	"matchcal/internal/logger"
	"matchcal/internal/match"
)

// Aggregate runs the adapter against listing URL variants in preference
// order and returns the deduplicated candidate set.
//
// Variants are alternate shapes of the same logical source, so the first one
// that yields any candidate wins and the rest are skipped. A variant that
// fails to fetch or parse is logged and skipped; an empty result across all
// variants is a normal outcome, not an error.
func Aggregate(ctx context.Context, fetcher Fetcher, adapter *Adapter, urls []string) []match.Candidate {
	for _, u := range urls {
		body, err := fetcher.Fetch(ctx, u)
		if err != nil {
			logger.Warn("Source fetch failed", logger.Fields{"url": u})
			continue
		}

		candidates, err := adapter.Discover(ctx, body, u)
		if err != nil {
			logger.Warn("Source parse failed", logger.Fields{"url": u})
			continue
		}

		if len(candidates) > 0 {
			return candidates
		}
		logger.Debug("Source variant yielded no candidates", logger.Fields{"url": u})
	}
	return nil
}
