package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"matchcal/internal/match"
	"matchcal/internal/reconcile"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// candidateView augments a candidate with its derived summary for JSON output.
type candidateView struct {
	match.Candidate
	Summary string `json:"summary"`
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt     time.Time       `json:"checked_at"`
	Candidates    []candidateView `json:"candidates"`
	Created       int             `json:"created"`
	Updated       int             `json:"updated"`
	Skipped       int             `json:"skipped"`
	Errors        []string        `json:"errors,omitempty"`
	DiscoveryOnly bool            `json:"discovery_only,omitempty"`
}

func newOutputResult(candidates []match.Candidate, res reconcile.Result) *OutputResult {
	views := make([]candidateView, 0, len(candidates))
	for _, cand := range candidates {
		views = append(views, candidateView{Candidate: cand, Summary: cand.Summary()})
	}

	errs := make([]string, 0, len(res.Errors))
	for _, err := range res.Errors {
		errs = append(errs, err.Error())
	}

	return &OutputResult{
		CheckedAt:  time.Now().UTC(),
		Candidates: views,
		Created:    res.Created,
		Updated:    res.Updated,
		Skipped:    res.Skipped,
		Errors:     errs,
	}
}

func reconcileResultNone() reconcile.Result {
	return reconcile.Result{}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, "No upcoming matches found.")
	}

	for _, cand := range result.Candidates {
		fmt.Fprintf(w, "%s @ %s\n", cand.Summary, cand.Start.Format("Mon, 2 Jan 2006 15:04 MST"))
		if verbose && cand.Link != "" {
			fmt.Fprintf(w, "     %s\n", cand.Link)
		}
	}

	if !result.DiscoveryOnly {
		fmt.Fprintf(w, "\nCreated: %d, Updated: %d, Skipped: %d\n",
			result.Created, result.Updated, result.Skipped)
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "Error: %s\n", msg)
		}
	} else if len(result.Candidates) > 0 {
		fmt.Fprintf(w, "\nTotal: %d matches\n", len(result.Candidates))
	}

	return nil
}
