package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/heycochrane/reviewbot/internal/ports"
)

// plsSelectors are the markup regions known to hold the plain language
// summary on the publisher site, most reliable first.
var plsSelectors = []string{
	".pls-section",
	"#pls",
	`[data-section="pls"]`,
	".plain-language-summary",
}

const articleParagraphLimit = 5

// strategy yields summary text from a fetched document, or "" when it does
// not apply.
type strategy struct {
	name string
	fn   func(doc *goquery.Document) string
}

var strategies = []strategy{
	{"selector", bySelector},
	{"heading", byHeading},
	{"article", byArticle},
}

// Extractor fetches review pages and pulls their plain language summary.
type Extractor struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.Extractor = (*Extractor)(nil)

// New wires an HTTP client; nil client gets a 30s-timeout default.
func New(baseURL, userAgent string, client *http.Client, log *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Extractor{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
		logger:    log,
	}
}

// Extract resolves a working page for the candidate and runs the strategy
// chain over it. The canonical publisher URL built from the catalog code is
// tried before the feed-provided URL; the first 200 response wins.
func (e *Extractor) Extract(ctx context.Context, url, cdNumber string) (string, bool) {
	var urls []string
	if cdNumber != "" {
		urls = append(urls, e.baseURL+"/"+cdNumber)
	}
	urls = append(urls, url)

	var doc *goquery.Document
	for _, u := range urls {
		e.logger.Info("fetching review content", "url", u)
		d, err := e.fetch(ctx, u)
		if err != nil {
			e.logger.Warn("fetch failed", "url", u, "error", err)
			continue
		}
		doc = d
		break
	}

	if doc == nil {
		e.logger.Warn("could not fetch any page", "cd", cdNumber)
		return "", false
	}

	for _, st := range strategies {
		if text := st.fn(doc); text != "" {
			e.logger.Debug("summary extracted", "cd", cdNumber, "strategy", st.name)
			return text, true
		}
	}

	e.logger.Warn("no plain language summary found", "cd", cdNumber, "url", url)
	return "", false
}

func (e *Extractor) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

func bySelector(doc *goquery.Document) string {
	for _, sel := range plsSelectors {
		section := doc.Find(sel).First()
		if section.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(section.Text()); text != "" {
			return text
		}
	}
	return ""
}

// byHeading scans h2-h4 headings for "plain language" and collects sibling
// content until the next heading of the same band.
func byHeading(doc *goquery.Document) string {
	var result string
	doc.Find("h2, h3, h4").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(heading.Text()), "plain language") {
			return true
		}

		var parts []string
		heading.NextAll().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
			switch goquery.NodeName(sibling) {
			case "h2", "h3", "h4":
				return false
			}
			if text := strings.TrimSpace(sibling.Text()); text != "" {
				parts = append(parts, text)
			}
			return true
		})

		if len(parts) > 0 {
			result = strings.Join(parts, "\n\n")
			return false
		}
		return true
	})
	return result
}

// byArticle is the last resort: the first few paragraphs of the main
// article container.
func byArticle(doc *goquery.Document) string {
	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("main").First()
	}
	if container.Length() == 0 {
		return ""
	}

	var parts []string
	container.Find("p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		if i >= articleParagraphLimit {
			return false
		}
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
		return true
	})

	return strings.Join(parts, "\n\n")
}
