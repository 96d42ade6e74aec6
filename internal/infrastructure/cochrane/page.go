package cochrane

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

var (
	datePublishedExpr = regexp.MustCompile(`"datePublished"\s*:\s*"([^"]+)"`)
	isoDateExpr       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
)

const politenessDelay = 500 * time.Millisecond

// PageDateSource resolves publication dates from the structured metadata
// embedded in the canonical publisher page. Fallback behind CrossRef.
type PageDateSource struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ports.DateSource = (*PageDateSource)(nil)

// NewPageDateSource builds a rate-limited publisher-page client.
func NewPageDateSource(baseURL, userAgent string, client *http.Client, log *slog.Logger) *PageDateSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &PageDateSource{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Every(politenessDelay), 1),
		logger:     log,
	}
}

// Name identifies the source in logs.
func (p *PageDateSource) Name() string {
	return "cochrane-page"
}

// DateFor fetches <base>/<cd> and scans the body for a datePublished field,
// keeping its leading YYYY-MM-DD component. Returns "" when the URL has no
// catalog code or the page carries no such field.
func (p *PageDateSource) DateFor(ctx context.Context, s domain.Summary) (string, error) {
	cd := s.CDNumber()
	if cd == "" {
		return "", nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+cd, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s for %s", resp.Status, cd)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	m := datePublishedExpr.FindSubmatch(body)
	if m == nil {
		return "", nil
	}

	iso := isoDateExpr.FindSubmatch(m[1])
	if iso == nil {
		return "", nil
	}

	return string(iso[1]), nil
}
