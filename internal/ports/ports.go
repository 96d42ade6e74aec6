package ports

import (
	"context"

	"github.com/heycochrane/reviewbot/internal/domain"
)

// ReviewSource enumerates candidate reviews from one upstream strategy
// (syndication feed, news-page scrape, ...).
type ReviewSource interface {
	Name() string
	Discover(ctx context.Context) ([]domain.Candidate, error)
}

// CandidateSource produces the final deduplicated candidate set for a run.
type CandidateSource interface {
	Discover(ctx context.Context) []domain.Candidate
}

// Extractor resolves a candidate's page and pulls its plain language summary.
// The boolean is false when no page or no summary text could be obtained.
type Extractor interface {
	Extract(ctx context.Context, url, cdNumber string) (string, bool)
}

// Completer sends a filled prompt to the language-model capability and
// returns its free-text response.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Transformer turns extracted summary text into structured records.
// Both operations return nil when the model output is unusable or the model
// signals an explicit skip.
type Transformer interface {
	Summarize(ctx context.Context, pls string) *domain.Summary
	Enrich(ctx context.Context, s domain.Summary) *domain.Summary
}

// DateSource resolves a publication date for one summary, or "" when the
// source has nothing for it.
type DateSource interface {
	Name() string
	DateFor(ctx context.Context, s domain.Summary) (string, error)
}

// DateResolver fills missing dates across a batch of summaries in place.
type DateResolver interface {
	ResolveMany(ctx context.Context, summaries []domain.Summary) (updated, failed int)
}

// SummaryStore persists processed reviews for deduplication and serving.
type SummaryStore interface {
	Exists(cdNumber string) bool
	Append(summaries []domain.Summary) error
	LoadAll() ([]domain.Summary, error)
	SaveAll(summaries []domain.Summary) error
}
