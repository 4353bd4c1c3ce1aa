package scraper

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// fakeFetcher serves canned documents by URL.
type fakeFetcher struct {
	pages   map[string][]byte
	fetched []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.fetched = append(f.fetched, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return body, nil
}

const listingURL = "https://bo3.gg/teams/natus-vincere/matches"

func testOptions(t *testing.T) Options {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Fatalf("loading Europe/Kyiv: %v", err)
	}
	return Options{
		Team:      "Natus Vincere",
		Loc:       loc,
		SourceUTC: true,
		AllowTBD:  true,
		Duration:  2 * time.Hour,
		Now: func() time.Time {
			return time.Date(2025, time.September, 1, 10, 0, 0, 0, loc)
		},
	}
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/fixtures/sample_matches.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

func TestDiscover(t *testing.T) {
	adapter := NewAdapter(nil, testOptions(t))

	candidates, err := adapter.Discover(context.Background(), loadFixture(t), listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	// The third fixture row has no date/time anywhere and no fetcher for the
	// detail tier, so it is silently dropped.
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if got := first.Summary(); got != "Natus Vincere vs M80 (Bo3) — Winter Cup" {
		t.Errorf("summary = %q", got)
	}
	loc := testOptions(t).Loc
	wantStart := time.Date(2025, time.September, 18, 21, 30, 0, 0, loc)
	if !first.Start.Equal(wantStart) {
		t.Errorf("start = %v, expected %v", first.Start, wantStart)
	}
	if !first.End.Equal(wantStart.Add(2 * time.Hour)) {
		t.Errorf("end = %v, expected start + 2h", first.End)
	}
	if first.Link != "https://bo3.gg/matches/natus-vincere-vs-m80-18-09-2025" {
		t.Errorf("link = %q", first.Link)
	}

	// Second row carries no dedicated cells; teams and schedule come from
	// the free-text sweep, and the listing URL stands in for the link.
	second := candidates[1]
	if second.TeamA != "Natus Vincere" || second.TeamB != "FaZe" {
		t.Errorf("free-text teams = %q vs %q", second.TeamA, second.TeamB)
	}
	if second.Link != listingURL {
		t.Errorf("free-text link = %q, expected listing URL", second.Link)
	}
	wantSecond := time.Date(2025, time.September, 19, 18, 0, 0, 0, loc)
	if !second.Start.Equal(wantSecond) {
		t.Errorf("free-text start = %v, expected %v", second.Start, wantSecond)
	}
}

func TestDiscoverDetailPageFallback(t *testing.T) {
	detailURL := "https://bo3.gg/matches/natus-vincere-vs-spirit"
	fetcher := &fakeFetcher{pages: map[string][]byte{
		detailURL: []byte(`<html><body>
			<h1>Natus Vincere vs Team Spirit</h1>
			<time datetime="2025-09-20T12:00:00Z">Sep 20</time>
		</body></html>`),
	}}
	adapter := NewAdapter(fetcher, testOptions(t))

	listing := []byte(`<html><body>
	<div class="table-row table-row--upcoming">
		<a class="c-global-match-link table-cell" href="/matches/natus-vincere-vs-spirit"></a>
		<div class="team-name">Natus Vincere</div>
		<div class="team-name">Team Spirit</div>
		<div class="bo-type">Bo5</div>
	</div>
	</body></html>`)

	candidates, err := adapter.Discover(context.Background(), listing, listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	loc := testOptions(t).Loc
	wantStart := time.Date(2025, time.September, 20, 15, 0, 0, 0, loc) // 12:00 UTC
	if !candidates[0].Start.Equal(wantStart) {
		t.Errorf("start = %v, expected %v", candidates[0].Start, wantStart)
	}
	if len(fetcher.fetched) != 1 || fetcher.fetched[0] != detailURL {
		t.Errorf("expected one detail fetch of %s, got %v", detailURL, fetcher.fetched)
	}
}

func TestDiscoverYearHintFromHref(t *testing.T) {
	// "Sep 18" would roll forward to 2026 from an October reference date;
	// the href suffix pins it to 2025.
	opts := testOptions(t)
	opts.Now = func() time.Time {
		return time.Date(2025, time.October, 1, 10, 0, 0, 0, opts.Loc)
	}
	adapter := NewAdapter(nil, opts)

	listing := []byte(`<html><body>
	<div class="table-row table-row--upcoming">
		<a class="c-global-match-link table-cell" href="/matches/natus-vincere-vs-m80-18-09-2025">
			<div class="date"><span class="time">18:30</span> Sep 18</div>
		</a>
		<div class="team-name">Natus Vincere</div>
		<div class="team-name">M80</div>
	</div>
	</body></html>`)

	candidates, err := adapter.Discover(context.Background(), listing, listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Start.Year() != 2025 {
		t.Errorf("expected hinted year 2025, got %d", candidates[0].Start.Year())
	}
}

func TestDiscoverPlaceholderOpponent(t *testing.T) {
	listing := []byte(`<html><body>
	<div class="table-row table-row--upcoming">
		<div class="date"><span class="time">18:30</span> Sep 18</div>
		<div class="team-name">Natus Vincere</div>
	</div>
	</body></html>`)

	adapter := NewAdapter(nil, testOptions(t))
	candidates, err := adapter.Discover(context.Background(), listing, listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].TeamB != "TBD" {
		t.Errorf("expected TBD opponent, got %q", candidates[0].TeamB)
	}

	// Placeholder policy disabled: the row is dropped instead.
	opts := testOptions(t)
	opts.AllowTBD = false
	strictAdapter := NewAdapter(nil, opts)
	candidates, err = strictAdapter.Discover(context.Background(), listing, listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected 0 candidates with TBD policy off, got %d", len(candidates))
	}
}

func TestDiscoverFreeTextOpponentBoundary(t *testing.T) {
	// Whatever sits between the opponent and the schedule, the captured name
	// must stop before the date/clock tokens.
	tests := []struct {
		name string
		cell string
	}{
		{"no separator", "Natus Vincere vs FaZe Sep 19 15:00"},
		{"hyphen", "Natus Vincere vs FaZe - Sep 19 15:00"},
		{"em dash", "Natus Vincere vs FaZe — Sep 19 15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := []byte(`<html><body>
			<div class="table-row table-row--upcoming">
				<div class="table-cell">` + tt.cell + `</div>
			</div>
			</body></html>`)

			adapter := NewAdapter(nil, testOptions(t))
			candidates, err := adapter.Discover(context.Background(), listing, listingURL)
			if err != nil {
				t.Fatalf("Discover failed: %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].TeamB != "FaZe" {
				t.Errorf("TeamB = %q", candidates[0].TeamB)
			}
			if got := candidates[0].Summary(); got != "Natus Vincere vs FaZe" {
				t.Errorf("summary = %q", got)
			}
		})
	}
}

func TestDiscoverDeclaredZoneOverridesUTCFlag(t *testing.T) {
	listing := []byte(`<html><body>
	<div class="table-row table-row--upcoming">
		<div class="table-cell">Natus Vincere vs G2 — Jul 10 20:00 CEST</div>
	</div>
	</body></html>`)

	adapter := NewAdapter(nil, testOptions(t))
	candidates, err := adapter.Discover(context.Background(), listing, listingURL)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	// 20:00 CEST is 21:00 Kyiv; interpreting as UTC would give 23:00.
	if candidates[0].Start.Hour() != 21 {
		t.Errorf("expected 21:00 Kyiv, got %v", candidates[0].Start)
	}
}

func TestAggregateShortCircuits(t *testing.T) {
	empty := []byte(`<html><body><p>maintenance</p></body></html>`)
	fetcher := &fakeFetcher{pages: map[string][]byte{
		"https://example.com/a": empty,
		"https://example.com/b": loadFixture(t),
		"https://example.com/c": loadFixture(t),
	}}
	adapter := NewAdapter(nil, testOptions(t))

	candidates := Aggregate(context.Background(), fetcher, adapter,
		[]string{"https://example.com/broken", "https://example.com/a", "https://example.com/b", "https://example.com/c"})

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// The failing and empty variants are passed over; the first productive
	// variant wins and the last is never fetched.
	for _, url := range fetcher.fetched {
		if url == "https://example.com/c" {
			t.Error("expected aggregation to stop after the first productive variant")
		}
	}
}

func TestAggregateAllVariantsFail(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{}}
	adapter := NewAdapter(nil, testOptions(t))

	candidates := Aggregate(context.Background(), fetcher, adapter, []string{"https://example.com/x"})
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}
