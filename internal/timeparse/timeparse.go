// Package timeparse resolves the partial date/time fragments scraped from
// match listings into absolute instants.
//
// Listings rarely carry complete timestamps: the year is usually missing, the
// date may be a relative label like "tomorrow", and the clock value may be
// rendered in UTC or in the viewer's zone depending on how the page was
// served. The resolver is pure: everything it needs ("now", the target zone,
// the UTC flag, an optional year hint) is passed in through Context, so it can
// be tested against any fixed reference time.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Context carries the resolution inputs for one source.
type Context struct {
	// Now is the reference instant used for relative labels and year inference.
	Now time.Time

	// Loc is the fixed target zone all resolved instants are expressed in.
	Loc *time.Location

	// SourceUTC interprets assembled wall-clock values as UTC before
	// converting into Loc. When false the values are taken as Loc-local.
	SourceUTC bool

	// YearHint, when non-zero, supplies the year for labels that omit one.
	// Adapters fill it from structured hints such as a -DD-MM-YYYY href
	// suffix. An explicit year inside the label still wins.
	YearHint int
}

// months maps lowercase month tokens to their month number. English short and
// long forms plus the Ukrainian genitive forms and stems bo3.gg renders.
var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,

	"січня": time.January, "січ": time.January,
	"лютого": time.February, "лют": time.February,
	"березня": time.March, "бер": time.March,
	"квітня": time.April, "кві": time.April,
	"травня": time.May, "тра": time.May,
	"червня": time.June, "чер": time.June,
	"липня": time.July, "лип": time.July,
	"серпня": time.August, "серп": time.August, "сер": time.August,
	"вересня": time.September, "вер": time.September,
	"жовтня": time.October, "жов": time.October,
	"листопада": time.November, "лис": time.November,
	"грудня": time.December, "гру": time.December,
}

// relativeDays maps relative-day aliases to an offset from today.
var relativeDays = map[string]int{
	"today":    0,
	"tomorrow": 1,
	"сьогодні": 0,
	"завтра":   1,
}

// zoneAbbrs maps the timezone abbreviations sources declare next to clock
// values. Abbreviations are ambiguous on their own, so each maps to a region
// zone that observes it; the DST variant and its base share a region.
var zoneAbbrs = map[string]string{
	"UTC":  "UTC",
	"GMT":  "Etc/GMT",
	"BST":  "Europe/London",
	"CET":  "Europe/Berlin",
	"CEST": "Europe/Berlin",
	"EET":  "Europe/Kyiv",
	"EEST": "Europe/Kyiv",
	"MSK":  "Europe/Moscow",
}

var timePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// Resolve converts a date label and an HH:MM time label into an absolute
// instant in the target zone. Failures mean "skip this candidate" and are
// never fatal to the caller.
func (c Context) Resolve(dateLabel, timeLabel string) (time.Time, error) {
	return c.resolve(dateLabel, timeLabel, c.assembleLoc())
}

// ResolveInZone is the secondary mode used when the source embeds an explicit
// timezone abbreviation (e.g. "CEST"). The abbreviation overrides the UTC
// flag for this value.
func (c Context) ResolveInZone(dateLabel, timeLabel, abbr string) (time.Time, error) {
	name, ok := zoneAbbrs[strings.ToUpper(strings.TrimSpace(abbr))]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown timezone abbreviation %q", abbr)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading zone for %q: %w", abbr, err)
	}
	return c.resolve(dateLabel, timeLabel, loc)
}

// ResolveISO parses an embedded structured timestamp from a match detail
// page. Values without an offset are treated as UTC.
func (c Context) ResolveISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(c.Loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.In(c.Loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

func (c Context) assembleLoc() *time.Location {
	if c.SourceUTC {
		return time.UTC
	}
	return c.Loc
}

// resolve assembles the naive wall-clock value in assembleIn and converts it
// into the target zone.
func (c Context) resolve(dateLabel, timeLabel string, assembleIn *time.Location) (time.Time, error) {
	hour, minute, err := parseClock(timeLabel)
	if err != nil {
		return time.Time{}, err
	}

	year, month, day, err := c.parseDate(dateLabel)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, assembleIn)
	// time.Date normalizes out-of-range days (Feb 30 -> Mar 2); reject them.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("day %d out of range for %s", day, month)
	}
	return t.In(c.Loc), nil
}

// parseClock accepts strictly HH:MM (24-hour).
func parseClock(label string) (hour, minute int, err error) {
	label = strings.TrimSpace(label)
	m := timePattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, fmt.Errorf("unparseable time %q", label)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// parseDate handles relative aliases and explicit month/day labels, in either
// "Month Day [Year]" or "Day Month [Year]" order.
func (c Context) parseDate(label string) (int, time.Month, int, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, 0, 0, fmt.Errorf("empty date label")
	}

	if offset, ok := relativeDays[strings.ToLower(label)]; ok {
		d := c.Now.In(c.Loc).AddDate(0, 0, offset)
		// Relative labels name a target-zone calendar day. When assembly
		// happens in UTC the clock value is UTC too, so the day is taken as
		// the same calendar day regardless of zone.
		return d.Year(), d.Month(), d.Day(), nil
	}

	fields := strings.Fields(strings.Trim(label, " ,."))
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, 0, fmt.Errorf("unparseable date %q", label)
	}

	var month time.Month
	var day int
	if m, ok := lookupMonth(fields[0]); ok {
		// "Aug 31"
		d, err := strconv.Atoi(strings.Trim(fields[1], ","))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("unparseable day in %q", label)
		}
		month, day = m, d
	} else if m, ok := lookupMonth(fields[1]); ok {
		// "31 серпня"
		d, err := strconv.Atoi(strings.Trim(fields[0], ","))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("unparseable day in %q", label)
		}
		month, day = m, d
	} else {
		return 0, 0, 0, fmt.Errorf("unknown month in %q", label)
	}

	if day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("day %d out of range in %q", day, label)
	}

	if len(fields) == 3 {
		y, err := strconv.Atoi(fields[2])
		if err != nil || y < 1000 {
			return 0, 0, 0, fmt.Errorf("unparseable year in %q", label)
		}
		return y, month, day, nil
	}

	return c.inferYear(month, day), month, day, nil
}

// inferYear picks the soonest future occurrence of month/day relative to
// "now" in the target zone; today itself is future-eligible. A caller-supplied
// hint wins over inference.
func (c Context) inferYear(month time.Month, day int) int {
	if c.YearHint != 0 {
		return c.YearHint
	}
	today := c.Now.In(c.Loc)
	if month < today.Month() || (month == today.Month() && day < today.Day()) {
		return today.Year() + 1
	}
	return today.Year()
}

func lookupMonth(token string) (time.Month, bool) {
	m, ok := months[strings.ToLower(strings.Trim(token, " ,."))]
	return m, ok
}
