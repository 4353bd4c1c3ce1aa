// Package reconcile compares discovered match candidates against existing
// calendar entries and converges the calendar toward the candidate set.
//
// Each candidate ends in exactly one of three outcomes: created (no existing
// entry matches), patched (an entry for the same teams exists but its title
// or time drifted), or skipped (an identical entry is already in place).
// Repeated runs against an unchanged source are therefore idempotent.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"matchcal/internal/logger"
	"matchcal/internal/match"
)

// Event is the read-only view of a calendar entry the reconciler compares
// against. The calendar store owns these; the core never constructs them.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Store is the calendar the reconciler converges. Calls are independently
// atomic; no read-after-write consistency stronger than "a later list
// eventually reflects a create" is assumed.
type Store interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, query string) ([]Event, error)
	CreateEvent(ctx context.Context, ev Event) (string, error)
	PatchEvent(ctx context.Context, id string, ev Event) error
}

// lookupWindow bounds the initial search around a candidate's start. Wide
// enough to contain legitimate same-day reschedules.
const lookupWindow = 3 * time.Hour

// Options configures a Reconciler.
type Options struct {
	// Tolerance is the start-time delta under which an entry with an
	// identical summary counts as up to date.
	Tolerance time.Duration

	// Horizon widens the lookup when the ±3h window finds nothing, to catch
	// an entry whose match was shifted by days.
	Horizon time.Duration

	// Strict disables fuzzy matching: only byte-identical summary and
	// in-tolerance start count as a duplicate, and nothing is ever patched.
	Strict bool

	// SourceURL is recorded in created event descriptions.
	SourceURL string
}

// Result reports one reconciliation pass. Per-candidate failures are
// collected here and never abort the batch.
type Result struct {
	Created int
	Updated int
	Skipped int
	Errors  []error
}

// Reconciler decides create/patch/skip per candidate against a Store.
type Reconciler struct {
	store Store
	opts  Options
}

// New creates a Reconciler.
func New(store Store, opts Options) *Reconciler {
	if opts.Tolerance <= 0 {
		opts.Tolerance = 5 * time.Minute
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 30 * 24 * time.Hour
	}
	return &Reconciler{store: store, opts: opts}
}

// Reconcile processes every candidate independently and returns the
// aggregated outcome.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []match.Candidate) Result {
	var res Result
	for _, cand := range candidates {
		outcome, err := r.reconcileOne(ctx, cand)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %w", cand.Summary(), err))
			logger.Error("Reconciliation failed for candidate", logger.Fields{
				"summary": cand.Summary(),
			}, err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeUpdated:
			res.Updated++
		case outcomeSkipped:
			res.Skipped++
		}
	}
	return res
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
)

func (r *Reconciler) reconcileOne(ctx context.Context, cand match.Candidate) (outcome, error) {
	key := cand.TeamKey()

	existing, err := r.lookup(ctx, cand, key)
	if err != nil {
		return 0, err
	}

	best := nearest(existing, cand.Start)
	if best == nil {
		return r.create(ctx, cand)
	}

	delta := absDuration(best.Start.Sub(cand.Start))
	if best.Summary == cand.Summary() && delta <= r.opts.Tolerance {
		logger.Debug("Candidate already up to date", logger.Fields{"summary": cand.Summary()})
		return outcomeSkipped, nil
	}

	if r.opts.Strict {
		// Strict mode treats anything short of an exact duplicate as a new
		// match and never rewrites existing entries.
		return r.create(ctx, cand)
	}

	ev := Event{
		Summary:     cand.Summary(),
		Description: r.description(cand),
		Start:       cand.Start,
		End:         cand.End,
	}
	if err := r.store.PatchEvent(ctx, best.ID, ev); err != nil {
		return 0, fmt.Errorf("patching event: %w", err)
	}
	logger.Info("Patched drifted event", logger.Fields{
		"summary": cand.Summary(),
		"event":   best.ID,
		"delta":   delta.String(),
	})
	return outcomeUpdated, nil
}

// lookup queries a ±3h window around the candidate first, then widens to the
// discovery horizon to find a time-shifted entry for the same teams.
func (r *Reconciler) lookup(ctx context.Context, cand match.Candidate, key string) ([]Event, error) {
	events, err := r.store.ListEvents(ctx, cand.Start.Add(-lookupWindow), cand.Start.Add(lookupWindow), key)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	matched := filterByKey(events, key)
	if len(matched) > 0 || r.opts.Strict {
		return matched, nil
	}

	events, err = r.store.ListEvents(ctx, cand.Start.Add(-r.opts.Horizon), cand.Start.Add(r.opts.Horizon), key)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return filterByKey(events, key), nil
}

func (r *Reconciler) create(ctx context.Context, cand match.Candidate) (outcome, error) {
	ev := Event{
		Summary:     cand.Summary(),
		Description: r.description(cand),
		Start:       cand.Start,
		End:         cand.End,
	}
	id, err := r.store.CreateEvent(ctx, ev)
	if err != nil {
		return 0, fmt.Errorf("creating event: %w", err)
	}
	logger.Info("Created event", logger.Fields{
		"summary": cand.Summary(),
		"event":   id,
	})
	return outcomeCreated, nil
}

func (r *Reconciler) description(cand match.Candidate) string {
	desc := "Auto-added by matchcal"
	if r.opts.SourceURL != "" {
		desc = "Auto-added from " + r.opts.SourceURL
	}
	if cand.Link != "" {
		desc += "\nMatch page: " + cand.Link
	}
	return desc
}

// filterByKey keeps events whose summary starts with the two-team key. The
// store's own query support is best-effort, so the prefix check is repeated
// here.
func filterByKey(events []Event, key string) []Event {
	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		if strings.HasPrefix(ev.Summary, key) {
			kept = append(kept, ev)
		}
	}
	return kept
}

// nearest selects the event with the smallest absolute start delta.
func nearest(events []Event, start time.Time) *Event {
	var best *Event
	var bestDelta time.Duration
	for i := range events {
		delta := absDuration(events[i].Start.Sub(start))
		if best == nil || delta < bestDelta {
			best = &events[i]
			bestDelta = delta
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
