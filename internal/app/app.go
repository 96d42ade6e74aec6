package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heycochrane/reviewbot/internal/config"
	"github.com/heycochrane/reviewbot/internal/dates"
	"github.com/heycochrane/reviewbot/internal/discovery"
	"github.com/heycochrane/reviewbot/internal/infrastructure/actions"
	"github.com/heycochrane/reviewbot/internal/infrastructure/cochrane"
	"github.com/heycochrane/reviewbot/internal/infrastructure/crossref"
	"github.com/heycochrane/reviewbot/internal/infrastructure/extract"
	"github.com/heycochrane/reviewbot/internal/infrastructure/feed"
	"github.com/heycochrane/reviewbot/internal/infrastructure/llm"
	"github.com/heycochrane/reviewbot/internal/infrastructure/scrape"
	"github.com/heycochrane/reviewbot/internal/infrastructure/storage"
	"github.com/heycochrane/reviewbot/internal/logging"
	"github.com/heycochrane/reviewbot/internal/transform"
	"github.com/heycochrane/reviewbot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	reporter *actions.Reporter
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store := storage.NewYAMLStore(cfg.Store.Path, baseLogger.With("component", "store"))

	fetchClient := &http.Client{Timeout: 30 * time.Second}
	rss := feed.New(cfg.Discovery.FeedURL, cfg.Cochrane.UserAgent, fetchClient,
		baseLogger.With("component", "source.rss"))
	news := scrape.New(cfg.Discovery.NewsURL, cfg.Cochrane.BaseURL, cfg.Cochrane.UserAgent, fetchClient,
		baseLogger.With("component", "source.news"))
	chain := discovery.NewChain(store, baseLogger.With("component", "discovery"), rss, news)

	extractor := extract.New(cfg.Cochrane.BaseURL, cfg.Cochrane.UserAgent, fetchClient,
		baseLogger.With("component", "extractor"))

	completer := llm.NewClaudeClient(cfg.Claude)
	transformer, err := transform.New(completer, cfg.Prompts, baseLogger.With("component", "transformer"))
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	lookupClient := &http.Client{Timeout: 15 * time.Second}
	works := crossref.New(cfg.CrossRef.Endpoint, cfg.Backfill.UserAgent, lookupClient,
		baseLogger.With("component", "crossref"))
	page := cochrane.NewPageDateSource(cfg.Cochrane.BaseURL, cfg.Backfill.UserAgent, lookupClient,
		baseLogger.With("component", "cochrane-page"))
	resolver := dates.NewResolver(cfg.Backfill.Workers, baseLogger.With("component", "dates"), works, page)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      chain,
		Extractor:   extractor,
		Transformer: transformer,
		Resolver:    resolver,
		Store:       store,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		pipeline: pipeline,
		reporter: actions.NewReporter(baseLogger.With("component", "reporter")),
	}, nil
}

// Update performs one acquisition run and publishes its result for the
// external automation trigger.
func (a *Application) Update(ctx context.Context, opts usecase.UpdateOptions) error {
	result, err := a.pipeline.Update(ctx, opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}
	return a.reporter.Publish(result.Processed, result.URLs)
}

// BackfillDates performs one date-backfill run.
func (a *Application) BackfillDates(ctx context.Context) error {
	return a.pipeline.BackfillDates(ctx)
}
