package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

// Source discovers candidate reviews from the publisher's syndication feed.
type Source struct {
	feedURL string
	parser  *gofeed.Parser
	logger  *slog.Logger
}

var _ ports.ReviewSource = (*Source)(nil)

// New wires a feed parser; client may be nil to use gofeed's default.
func New(feedURL, userAgent string, client *http.Client, log *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	if client != nil {
		parser.Client = client
	}
	return &Source{feedURL: feedURL, parser: parser, logger: log}
}

// Name identifies the strategy in logs.
func (s *Source) Name() string {
	return "rss"
}

// Discover fetches the feed and keeps entries whose link carries a catalog
// code. Entries without one are dropped silently.
func (s *Source) Discover(ctx context.Context) ([]domain.Candidate, error) {
	s.logger.Info("fetching rss feed", "url", s.feedURL)

	parsed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.feedURL, err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		cd := domain.CDNumber(item.Link)
		if cd == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			CDNumber: cd,
			URL:      item.Link,
			Title:    item.Title,
		})
	}

	s.logger.Info("rss feed scanned", "entries", len(parsed.Items), "reviews", len(candidates))
	return candidates, nil
}
