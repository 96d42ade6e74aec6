package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

// Source discovers candidate reviews by scanning the publisher's news page
// for links carrying a catalog code. Used as fallback when the feed is empty.
type Source struct {
	newsURL   string
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.ReviewSource = (*Source)(nil)

// New wires an HTTP client; nil client gets a 30s-timeout default.
func New(newsURL, baseURL, userAgent string, client *http.Client, log *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{
		newsURL:   newsURL,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		logger:    log,
	}
}

// Name identifies the strategy in logs.
func (s *Source) Name() string {
	return "news-scrape"
}

// Discover fetches the news page, scans every hyperlink for a catalog code,
// normalizes relative links against the base URL, and deduplicates by code
// keeping the first occurrence in page order.
func (s *Source) Discover(ctx context.Context) ([]domain.Candidate, error) {
	s.logger.Info("scraping news page", "url", s.newsURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.newsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news page: %w", err)
	}

	seen := map[string]struct{}{}
	var candidates []domain.Candidate

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		cd := domain.CDNumber(href)
		if cd == "" {
			return
		}
		if _, ok := seen[cd]; ok {
			return
		}
		seen[cd] = struct{}{}

		if strings.HasPrefix(href, "/") {
			href = s.baseURL + href
		}

		candidates = append(candidates, domain.Candidate{
			CDNumber: cd,
			URL:      href,
			Title:    strings.TrimSpace(link.Text()),
		})
	})

	s.logger.Info("news page scanned", "reviews", len(candidates))
	return candidates, nil
}
