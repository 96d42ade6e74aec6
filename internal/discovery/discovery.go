package discovery

import (
	"context"
	"log/slog"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

// Chain runs review sources in order until one yields candidates, then drops
// every candidate whose catalog code is already in the store. A source that
// fails or returns nothing hands over to the next one; only when every source
// comes up empty is the run's candidate set empty.
type Chain struct {
	sources []ports.ReviewSource
	store   ports.SummaryStore
	logger  *slog.Logger
}

var _ ports.CandidateSource = (*Chain)(nil)

// NewChain builds the ordered discovery chain backed by the given store.
func NewChain(store ports.SummaryStore, log *slog.Logger, sources ...ports.ReviewSource) *Chain {
	return &Chain{sources: sources, store: store, logger: log}
}

// Discover returns new candidates in upstream order.
func (c *Chain) Discover(ctx context.Context) []domain.Candidate {
	var found []domain.Candidate
	for _, src := range c.sources {
		candidates, err := src.Discover(ctx)
		if err != nil {
			c.logger.Warn("discovery source failed", "source", src.Name(), "error", err)
			continue
		}
		if len(candidates) == 0 {
			c.logger.Info("discovery source returned no results", "source", src.Name())
			continue
		}
		found = candidates
		break
	}

	if len(found) == 0 {
		return nil
	}

	fresh := make([]domain.Candidate, 0, len(found))
	for _, cand := range found {
		if c.store.Exists(cand.CDNumber) {
			continue
		}
		fresh = append(fresh, cand)
	}

	c.logger.Info("discovery finished", "found", len(found), "new", len(fresh))
	return fresh
}
