package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"matchcal/internal/logger"
	"matchcal/internal/match"
	"matchcal/internal/timeparse"
)

// Options configures an Adapter for one upstream source.
type Options struct {
	// Team is the tracked team's display name.
	Team string

	// Loc is the fixed target zone; SourceUTC the clock interpretation flag.
	Loc       *time.Location
	SourceUTC bool

	// AllowTBD emits a placeholder opponent when only the tracked team is
	// recoverable from a row.
	AllowTBD bool

	// Duration is the fixed candidate duration (end = start + Duration).
	Duration time.Duration

	// Now supplies the reference time; defaults to time.Now.
	Now func() time.Time
}

// Adapter extracts match candidates from a bo3.gg-style team matches listing.
//
// Extraction is layered: dedicated row fields first, then a free-text sweep
// of the row, then (when a detail link exists) the match detail page with its
// structured timestamp preferred over a second free-text sweep. A row that
// exhausts every tier is dropped, never an error.
type Adapter struct {
	opts    Options
	fetcher Fetcher
}

// NewAdapter creates an Adapter. fetcher is used only for the detail-page
// escalation tier and may be nil to disable it.
func NewAdapter(fetcher Fetcher, opts Options) *Adapter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Duration <= 0 {
		opts.Duration = 2 * time.Hour
	}
	return &Adapter{opts: opts, fetcher: fetcher}
}

var (
	// "Team A vs Team B" within flattened row text.
	vsPattern = regexp.MustCompile(`(?i)([0-9\p{L}][\p{L}0-9 .'\-]*?)\s+vs\.?\s+([0-9\p{L}][\p{L}0-9 .'\-]*)`)

	// HH:MM token with an optional declared timezone abbreviation.
	clockPattern = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)(?:\s*(UTC|GMT|BST|CET|CEST|EET|EEST|MSK))?\b`)

	// "Aug 31" / "August 31" / "31 серпня" tokens in free text.
	monthDayPattern = regexp.MustCompile(`(?i)\b(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(\d{1,2})\b`)
	// No trailing \b: RE2 word boundaries are ASCII-only and never fire
	// after a Cyrillic letter.
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+(січня|лютого|березня|квітня|травня|червня|липня|серпня|вересня|жовтня|листопада|грудня)`)

	// Year hint encoded as a -DD-MM-YYYY href suffix.
	hrefDatePattern = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})$`)

	// Embedded structured timestamp inside JSON-LD or state blobs.
	jsonStartPattern = regexp.MustCompile(`"start(?:Date|_date)"\s*:\s*"([^"]+)"`)
)

// Discover extracts zero or more candidates from a listing document.
// listingURL anchors relative hrefs and is the fallback source link.
func (a *Adapter) Discover(ctx context.Context, body []byte, listingURL string) ([]match.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	rows := doc.Find(".table-row.table-row--upcoming")
	if rows.Length() == 0 {
		// Structural drift fallback: sweep every table row and let the
		// per-row extraction decide what is a match.
		rows = doc.Find(".table-row")
	}

	candidates := make([]match.Candidate, 0)
	rows.Each(func(i int, row *goquery.Selection) {
		cand, ok := a.extractRow(ctx, row, listingURL)
		if !ok {
			return
		}
		candidates = append(candidates, cand)
	})

	return match.Dedupe(candidates), nil
}

// extractRow walks one match row through the fallback tiers. The terminal
// states are an emitted candidate or a dropped row; a resolver failure at
// every tier means drop, and a candidate is never partially constructed.
func (a *Adapter) extractRow(ctx context.Context, row *goquery.Selection, listingURL string) (match.Candidate, bool) {
	rowText := flatten(row.Text())

	link, yearHint := a.matchLink(row, listingURL)

	teamA, teamB, ok := a.extractTeams(row, rowText)
	if !ok {
		logger.Debug("Row dropped: no teams", logger.Fields{"row": clip(rowText)})
		return match.Candidate{}, false
	}

	format := flatten(row.Find(".bo-type").First().Text())
	tournament := flatten(row.Find(".table-cell.tournament .tournament-name").First().Text())
	if tournament == "" {
		tournament = flatten(row.Find(".tournament-name").First().Text())
	}

	start, err := a.resolveStart(ctx, row, rowText, link, yearHint)
	if err != nil {
		logger.Debug("Row dropped: unresolvable start", logger.Fields{
			"teams": teamA + " vs " + teamB,
			"link":  link,
		})
		return match.Candidate{}, false
	}

	return match.Candidate{
		TeamA:      teamA,
		TeamB:      teamB,
		Format:     format,
		Tournament: tournament,
		Start:      start,
		End:        start.Add(a.opts.Duration),
		Link:       link,
	}, true
}

// resolveStart tries the extraction tiers in order and hands whatever
// material they produce to the resolver.
func (a *Adapter) resolveStart(ctx context.Context, row *goquery.Selection, rowText, link string, yearHint int) (time.Time, error) {
	rctx := a.resolveContext(yearHint)

	// Tier 1: dedicated date/time cells.
	dateLabel, timeLabel := extractDateCells(row)
	if dateLabel != "" && timeLabel != "" {
		if t, err := rctx.Resolve(dateLabel, timeLabel); err == nil {
			return t, nil
		}
	}

	// Tier 2: free-text sweep of the flattened row.
	if t, err := a.resolveFromText(rctx, rowText); err == nil {
		return t, nil
	}

	// Tier 3: match detail page, structured timestamp first.
	if link != "" && a.fetcher != nil {
		if t, err := a.resolveFromDetail(ctx, rctx, link); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("no resolvable date/time")
}

// resolveFromText scans flattened text for an HH:MM token and a month/day
// token. A declared timezone abbreviation next to the clock overrides the
// UTC flag.
func (a *Adapter) resolveFromText(rctx timeparse.Context, text string) (time.Time, error) {
	clock := clockPattern.FindStringSubmatch(text)
	if clock == nil {
		return time.Time{}, fmt.Errorf("no time token")
	}
	timeLabel := clock[1] + ":" + clock[2]
	abbr := clock[3]

	var dateLabel string
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		dateLabel = m[1] + " " + m[2]
	} else if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		dateLabel = m[1] + " " + m[2]
	} else if rel := relativeToken(text); rel != "" {
		dateLabel = rel
	} else {
		return time.Time{}, fmt.Errorf("no date token")
	}

	if abbr != "" {
		return rctx.ResolveInZone(dateLabel, timeLabel, abbr)
	}
	return rctx.Resolve(dateLabel, timeLabel)
}

// resolveFromDetail fetches the match page and prefers an embedded
// structured timestamp over a second free-text sweep.
func (a *Adapter) resolveFromDetail(ctx context.Context, rctx timeparse.Context, link string) (time.Time, error) {
	body, err := a.fetcher.Fetch(ctx, link)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching detail page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing detail page: %w", err)
	}

	// Structured: <time datetime>, itemprop=startDate, then JSON-LD.
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if t, err := rctx.ResolveISO(v); err == nil {
			return t, nil
		}
	}
	for _, attr := range []string{"content", "datetime"} {
		if v, ok := doc.Find(`[itemprop="startDate"]`).First().Attr(attr); ok {
			if t, err := rctx.ResolveISO(v); err == nil {
				return t, nil
			}
		}
	}
	if m := jsonStartPattern.FindSubmatch(body); m != nil {
		if t, err := rctx.ResolveISO(string(m[1])); err == nil {
			return t, nil
		}
	}

	return a.resolveFromText(rctx, flatten(doc.Text()))
}

// extractTeams pulls team names from dedicated cells, then the "A vs B"
// free-text pattern, then the placeholder-opponent policy.
func (a *Adapter) extractTeams(row *goquery.Selection, rowText string) (string, string, bool) {
	names := make([]string, 0, 2)
	row.Find(".team-name").Each(func(i int, sel *goquery.Selection) {
		if name := flatten(sel.Text()); name != "" {
			names = append(names, name)
		}
	})

	switch {
	case len(names) >= 2 && names[0] != names[1]:
		return names[0], names[1], true
	case len(names) == 1:
		if a.opts.AllowTBD {
			return names[0], "TBD", true
		}
		return "", "", false
	}

	if m := vsPattern.FindStringSubmatch(rowText); m != nil {
		ta, tb := trimScheduleTokens(m[1]), trimScheduleTokens(m[2])
		if ta != "" && tb != "" && !strings.EqualFold(ta, tb) {
			return ta, tb, true
		}
	}

	// No names at all: keep the row only when its text confirms the tracked
	// team is playing.
	if a.opts.AllowTBD && a.opts.Team != "" && strings.Contains(strings.ToLower(rowText), strings.ToLower(a.opts.Team)) {
		return a.opts.Team, "TBD", true
	}
	return "", "", false
}

// matchLink returns the absolute detail-page URL for a row (or the listing
// URL when absent) and a year hint parsed from a -DD-MM-YYYY href suffix.
func (a *Adapter) matchLink(row *goquery.Selection, listingURL string) (string, int) {
	href, ok := row.Find("a.c-global-match-link.table-cell[href]").First().Attr("href")
	if !ok {
		href, ok = row.Find(`a[href*="/matches/"]`).First().Attr("href")
	}
	if !ok || href == "" {
		return listingURL, 0
	}

	yearHint := 0
	if m := hrefDatePattern.FindStringSubmatch(href); m != nil {
		if y, err := strconv.Atoi(m[3]); err == nil {
			yearHint = y
		}
	}

	return absoluteURL(listingURL, href), yearHint
}

func (a *Adapter) resolveContext(yearHint int) timeparse.Context {
	return timeparse.Context{
		Now:       a.opts.Now(),
		Loc:       a.opts.Loc,
		SourceUTC: a.opts.SourceUTC,
		YearHint:  yearHint,
	}
}

// extractDateCells reads the dedicated .date cell: the .time child carries
// the clock, the remainder of the cell text is the date label.
func extractDateCells(row *goquery.Selection) (dateLabel, timeLabel string) {
	dateCell := row.Find(".date").First()
	if dateCell.Length() == 0 {
		return "", ""
	}

	timeLabel = flatten(dateCell.Find(".time").First().Text())
	raw := flatten(dateCell.Text())
	if timeLabel != "" {
		raw = flatten(strings.Replace(raw, timeLabel, "", 1))
	}
	return raw, timeLabel
}

func relativeToken(text string) string {
	lower := strings.ToLower(text)
	for _, alias := range []string{"today", "tomorrow", "сьогодні", "завтра"} {
		if strings.Contains(lower, alias) {
			return alias
		}
	}
	return ""
}

func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// trimScheduleTokens cuts a free-text team capture at the first date or clock
// token. The "A vs B" capture is greedy over letters, digits and spaces, so a
// row with no separator between the opponent and the schedule would otherwise
// pollute the name.
func trimScheduleTokens(name string) string {
	cut := len(name)
	for _, re := range []*regexp.Regexp{clockPattern, monthDayPattern, dayMonthPattern} {
		if loc := re.FindStringIndex(name); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return strings.Trim(strings.TrimSpace(name[:cut]), "-— ")
}

// flatten collapses runs of whitespace into single spaces.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
