package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.CandidateSource
	Extractor   ports.Extractor
	Transformer ports.Transformer
	Resolver    ports.DateResolver
	Store       ports.SummaryStore
	Logger      *slog.Logger
}

// Pipeline implements the review acquisition and date-backfill workflows.
type Pipeline struct {
	source      ports.CandidateSource
	extractor   ports.Extractor
	transformer ports.Transformer
	resolver    ports.DateResolver
	store       ports.SummaryStore
	logger      *slog.Logger
}

// UpdateOptions tunes a single acquisition run.
type UpdateOptions struct {
	DryRun     bool
	MaxReviews int
}

// UpdateResult summarizes a finished acquisition run for external automation.
type UpdateResult struct {
	Processed int
	URLs      []string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:      deps.Source,
		extractor:   deps.Extractor,
		transformer: deps.Transformer,
		resolver:    deps.Resolver,
		store:       deps.Store,
		logger:      deps.Logger,
	}
}

// Update runs discovery, extraction, transformation and the batch append,
// one candidate at a time. Per-candidate failures skip that candidate; the
// only fatal error is a store that fails validation after the append.
func (p *Pipeline) Update(ctx context.Context, opts UpdateOptions) (UpdateResult, error) {
	candidates := p.source.Discover(ctx)
	if len(candidates) == 0 {
		p.logger.Info("no new reviews to process")
		return UpdateResult{}, nil
	}

	if opts.MaxReviews > 0 && len(candidates) > opts.MaxReviews {
		candidates = candidates[:opts.MaxReviews]
	}

	if opts.DryRun {
		p.logger.Info("dry run, would process these reviews", "count", len(candidates))
		for _, cand := range candidates {
			p.logger.Info("would process", "cd", cand.CDNumber, "title", cand.Title)
		}
		return UpdateResult{}, nil
	}

	var processed []domain.Summary
	for _, cand := range candidates {
		p.logger.Info("processing review", "cd", cand.CDNumber)

		pls, ok := p.extractor.Extract(ctx, cand.URL, cand.CDNumber)
		if !ok {
			p.logger.Warn("skipping review, could not fetch content", "cd", cand.CDNumber)
			continue
		}

		summary := p.transformer.Summarize(ctx, pls)
		if summary == nil {
			p.logger.Warn("skipping review, summarization failed", "cd", cand.CDNumber)
			continue
		}
		summary.URL = cand.URL

		enriched := p.transformer.Enrich(ctx, *summary)
		if enriched == nil {
			p.logger.Warn("skipping review, enrichment failed", "cd", cand.CDNumber)
			continue
		}

		processed = append(processed, *enriched)
		p.logger.Info("processed review", "cd", cand.CDNumber)
	}

	if len(processed) > 0 {
		if err := p.store.Append(processed); err != nil {
			return UpdateResult{}, fmt.Errorf("append summaries: %w", err)
		}
	}

	urls := make([]string, 0, len(processed))
	for _, s := range processed {
		urls = append(urls, s.URL)
	}

	return UpdateResult{Processed: len(processed), URLs: urls}, nil
}

// BackfillDates loads the full store, resolves missing publication dates
// under the bounded-concurrency resolver, and rewrites the store.
func (p *Pipeline) BackfillDates(ctx context.Context) error {
	summaries, err := p.store.LoadAll()
	if err != nil {
		return fmt.Errorf("load summaries: %w", err)
	}
	if len(summaries) == 0 {
		p.logger.Warn("no summaries found")
		return nil
	}

	needed := 0
	for i := range summaries {
		if summaries[i].Date == "" {
			needed++
		}
	}
	p.logger.Info("loaded summaries", "total", len(summaries), "needing_dates", needed)
	if needed == 0 {
		p.logger.Info("all entries already have dates")
		return nil
	}

	updated, failed := p.resolver.ResolveMany(ctx, summaries)
	p.logger.Info("backfill finished", "updated", updated, "failed", failed)

	if err := p.store.SaveAll(summaries); err != nil {
		return fmt.Errorf("save summaries: %w", err)
	}

	return nil
}
