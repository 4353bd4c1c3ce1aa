// Package match provides the candidate type produced by discovery and the
// aggregation rules applied before reconciliation.
//
// A Candidate is one discovered match instance. Candidates are rebuilt from
// scratch on every pipeline run and never persisted by the core; the external
// calendar remains the single source of truth for what was already announced.
package match

import (
	"fmt"
	"time"
)

// Candidate is one discovered match instance.
type Candidate struct {
	TeamA      string    `json:"team_a"`
	TeamB      string    `json:"team_b"`
	Format     string    `json:"format,omitempty"`     // series label, e.g. "Bo3"
	Tournament string    `json:"tournament,omitempty"` // empty if unknown
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Link       string    `json:"link"` // match detail page, or the listing URL
}

// Summary builds the canonical event title. It is a pure function of the
// other fields and doubles as the human-readable half of the identity key.
func (c Candidate) Summary() string {
	s := c.TeamKey()
	if c.Format != "" {
		s += fmt.Sprintf(" (%s)", c.Format)
	}
	if c.Tournament != "" {
		s += " — " + c.Tournament
	}
	return s
}

// TeamKey is the two-team prefix of the summary, used for tolerant matching:
// format and tournament labels legitimately mutate between runs while the
// teams and approximate time identify the same match.
func (c Candidate) TeamKey() string {
	return c.TeamA + " vs " + c.TeamB
}

// Key is the exact dedup identity: summary plus start instant.
func (c Candidate) Key() string {
	return c.Summary() + "|" + c.Start.UTC().Format(time.RFC3339)
}

// StartsOn reports whether the candidate is scheduled on the same calendar
// day as ref, in ref's location.
func (c Candidate) StartsOn(ref time.Time, loc *time.Location) bool {
	a := c.Start.In(loc)
	b := ref.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Dedupe drops candidates describing the same match, first-seen wins.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	unique := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c.Key()] {
			seen[c.Key()] = true
			unique = append(unique, c)
		}
	}
	return unique
}

// FilterHorizon keeps candidates starting within the discovery horizon.
// Already-started matches stay: a same-day match in progress may still need
// a schedule correction.
func FilterHorizon(candidates []Candidate, now time.Time, horizon time.Duration) []Candidate {
	if horizon <= 0 {
		return candidates
	}
	cutoff := now.Add(horizon)
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Start.Before(cutoff) {
			kept = append(kept, c)
		}
	}
	return kept
}
