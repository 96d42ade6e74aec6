package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

// doiExprs match a DOI inside a review URL, most specific first.
var doiExprs = []*regexp.Regexp{
	regexp.MustCompile(`(10\.1002/14651858\.CD\d+(?:\.pub\d+)?)`),
	regexp.MustCompile(`doi/(10\.[^/]+/[^/]+)`),
}

// dateFields is the preference order for picking a publication date out of
// a CrossRef work record.
var dateFields = []string{"published", "issued", "published-online", "created"}

const politenessDelay = 100 * time.Millisecond

// Client resolves publication dates through the CrossRef works API.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ports.DateSource = (*Client)(nil)

// New builds a rate-limited CrossRef client.
func New(endpoint, userAgent string, client *http.Client, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		userAgent:  userAgent,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Every(politenessDelay), 1),
		logger:     log,
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string {
	return "crossref"
}

// DateFor queries the works API by the DOI derived from the summary URL.
// Returns "" when the URL has no DOI or the record carries no usable date.
func (c *Client) DateFor(ctx context.Context, s domain.Summary) (string, error) {
	doi := ExtractDOI(s.URL)
	if doi == "" {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/works/"+doi, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query works: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crossref returned %s for %s", resp.Status, doi)
	}

	var payload struct {
		Message map[string]json.RawMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode works response: %w", err)
	}

	for _, field := range dateFields {
		raw, ok := payload.Message[field]
		if !ok {
			continue
		}
		var parts struct {
			DateParts [][]int `json:"date-parts"`
		}
		if err := json.Unmarshal(raw, &parts); err != nil {
			continue
		}
		if len(parts.DateParts) == 0 {
			continue
		}
		if date := formatDate(parts.DateParts[0]); date != "" {
			return date, nil
		}
	}

	return "", nil
}

// ExtractDOI pulls a DOI out of a review URL, or "" when none is present.
func ExtractDOI(url string) string {
	for _, expr := range doiExprs {
		if m := expr.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// formatDate degrades granularity gracefully: missing month or day
// default to 01.
func formatDate(parts []int) string {
	switch {
	case len(parts) >= 3:
		return fmt.Sprintf("%04d-%02d-%02d", parts[0], parts[1], parts[2])
	case len(parts) == 2:
		return fmt.Sprintf("%04d-%02d-01", parts[0], parts[1])
	case len(parts) == 1:
		return fmt.Sprintf("%04d-01-01", parts[0])
	}
	return ""
}
