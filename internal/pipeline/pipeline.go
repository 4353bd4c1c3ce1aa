// Package pipeline orchestrates one discovery-reconciliation pass and the
// same-day re-check loop built on top of it.
package pipeline

import (
	"context"
	"time"

	"matchcal/internal/config"
	"matchcal/internal/logger"
	"matchcal/internal/match"
	"matchcal/internal/notify"
	"matchcal/internal/reconcile"
	"matchcal/internal/scraper"
	"matchcal/internal/storage"
)

// Pipeline wires the fetcher, adapter, reconciler and the optional
// announcement/snapshot sinks into one runnable unit.
type Pipeline struct {
	cfg      *config.Config
	fetcher  scraper.Fetcher
	adapter  *scraper.Adapter
	rec      *reconcile.Reconciler
	notifier notify.Notifier  // optional
	store    *storage.Storage // optional
	now      func() time.Time
}

// New assembles a pipeline. store (calendar) may be nil for discovery-only
// use such as "list" and "export"; notifier and snapshots are optional.
func New(cfg *config.Config, fetcher scraper.Fetcher, calendarStore reconcile.Store, notifier notify.Notifier, snapshots *storage.Storage) *Pipeline {
	adapter := scraper.NewAdapter(fetcher, scraper.Options{
		Team:      cfg.Team,
		Loc:       cfg.Location(),
		SourceUTC: cfg.ScrapedTimeUTC,
		AllowTBD:  cfg.AllowTBDOpponent,
		Duration:  cfg.MatchDuration(),
	})

	var rec *reconcile.Reconciler
	if calendarStore != nil {
		rec = reconcile.New(calendarStore, reconcile.Options{
			Tolerance: cfg.Tolerance(),
			Horizon:   cfg.Horizon(),
			Strict:    cfg.StrictDuplicates,
			SourceURL: firstURL(cfg.SourceURLs),
		})
	}

	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		adapter:  adapter,
		rec:      rec,
		notifier: notifier,
		store:    snapshots,
		now:      time.Now,
	}
}

// Discover aggregates candidates across the configured URL variants and
// applies the horizon filter. Zero candidates is a normal outcome.
func (p *Pipeline) Discover(ctx context.Context) []match.Candidate {
	candidates := scraper.Aggregate(ctx, p.fetcher, p.adapter, p.cfg.SourceURLs)
	candidates = match.FilterHorizon(candidates, p.now(), p.cfg.Horizon())

	logger.Info("Discovery finished", logger.Fields{"candidates": len(candidates)})
	return candidates
}

// RunOnce performs one aggregate → reconcile pass, records the snapshot and
// announces created/patched matches.
func (p *Pipeline) RunOnce(ctx context.Context) ([]match.Candidate, reconcile.Result) {
	candidates := p.Discover(ctx)

	var res reconcile.Result
	if p.rec != nil {
		res = p.rec.Reconcile(ctx, candidates)
		logger.Info("Reconcile finished", logger.Fields{
			"created": res.Created,
			"updated": res.Updated,
			"skipped": res.Skipped,
			"errors":  len(res.Errors),
		})
	}

	p.record(candidates, res)
	return candidates, res
}

// RunUntilSettled repeats RunOnce while any discovered candidate falls on
// the current date in the target zone, sleeping the configured interval
// between passes. Same-day matches are the most likely to receive
// last-minute schedule corrections.
func (p *Pipeline) RunUntilSettled(ctx context.Context) (reconcile.Result, error) {
	var total reconcile.Result
	for {
		candidates, res := p.RunOnce(ctx)
		total.Created += res.Created
		total.Updated += res.Updated
		total.Skipped += res.Skipped
		total.Errors = append(total.Errors, res.Errors...)

		if len(candidates) == 0 || !p.anySameDay(candidates) {
			return total, nil
		}

		logger.Info("Same-day match present, re-checking", logger.Fields{
			"interval": p.cfg.RecheckInterval().String(),
		})
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(p.cfg.RecheckInterval()):
		}
	}
}

func (p *Pipeline) anySameDay(candidates []match.Candidate) bool {
	now := p.now()
	loc := p.cfg.Location()
	for _, cand := range candidates {
		if cand.StartsOn(now, loc) {
			return true
		}
	}
	return false
}

// record saves the snapshot and announces fresh matches; both are
// best-effort side channels and never fail the pass.
func (p *Pipeline) record(candidates []match.Candidate, res reconcile.Result) {
	var fresh []match.Candidate
	if p.store != nil {
		previous, err := p.store.LoadSnapshot()
		if err != nil {
			logger.Warn("Loading snapshot failed", logger.Fields{"error": err.Error()})
		} else {
			fresh = storage.Diff(previous, candidates)
		}
		if err := p.store.SaveSnapshot(candidates); err != nil {
			logger.Warn("Saving snapshot failed", logger.Fields{"error": err.Error()})
		}
	}

	if p.notifier != nil && res.Created+res.Updated > 0 && len(fresh) > 0 {
		if err := p.notifier.Notify(fresh); err != nil {
			logger.Warn("Announcing matches failed", logger.Fields{"error": err.Error()})
		}
	}
}

func firstURL(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
