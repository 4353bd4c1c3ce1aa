// Package scraper provides HTTP fetching and HTML parsing for upcoming
// esports matches of a tracked team.
//
// The scraper fetches the public bo3.gg team matches listing and extracts
// match information including team names, series format, tournament, and the
// scheduled date/time. Extraction is layered for robustness against upstream
// markup drift: dedicated row fields, a free-text sweep of the row, and
// finally the per-match detail page.
package scraper
