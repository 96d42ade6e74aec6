package dates

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

const progressEvery = 50

// Resolver fills missing publication dates by running an ordered chain of
// lookup sources, fanned out over a bounded worker pool for batches.
type Resolver struct {
	sources []ports.DateSource
	workers int
	logger  *slog.Logger
}

var _ ports.DateResolver = (*Resolver)(nil)

// NewResolver builds a resolver over the given sources, tried in order.
func NewResolver(workers int, log *slog.Logger, sources ...ports.DateSource) *Resolver {
	if workers <= 0 {
		workers = 1
	}
	return &Resolver{sources: sources, workers: workers, logger: log}
}

// Resolve returns the summary's date, looking it up only when absent.
// Lookup failures degrade to "".
func (r *Resolver) Resolve(ctx context.Context, s domain.Summary) string {
	if s.Date != "" {
		return s.Date
	}

	for _, src := range r.sources {
		date, err := src.DateFor(ctx, s)
		if err != nil {
			r.logger.Debug("date lookup failed", "source", src.Name(), "url", s.URL, "error", err)
			continue
		}
		if date != "" {
			r.logger.Info("date resolved", "source", src.Name(), "url", s.URL, "date", date)
			return date
		}
	}

	return ""
}

// ResolveMany resolves every dateless summary concurrently and writes the
// results back in place. Each task owns exactly one index in the result
// slice and writes it only on completion, so merged order is the caller's
// order regardless of completion order.
func (r *Resolver) ResolveMany(ctx context.Context, summaries []domain.Summary) (updated, failed int) {
	needed := 0
	for i := range summaries {
		if summaries[i].Date == "" {
			needed++
		}
	}
	if needed == 0 {
		return 0, 0
	}

	results := make([]string, len(summaries))
	var done atomic.Int64

	g := &errgroup.Group{}
	g.SetLimit(r.workers)
	for i := range summaries {
		if summaries[i].Date != "" {
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = r.Resolve(ctx, summaries[i])
			if n := done.Add(1); n%progressEvery == 0 {
				r.logger.Info("backfill progress", "processed", n, "needed", needed)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range summaries {
		if summaries[i].Date != "" {
			continue
		}
		if results[i] == "" {
			failed++
			r.logger.Warn("could not find date", "url", summaries[i].URL)
			continue
		}
		summaries[i].Date = results[i]
		updated++
	}

	return updated, failed
}
