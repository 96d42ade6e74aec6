package dates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heycochrane/reviewbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDateSource struct {
	name  string
	dates map[string]string
	err   error
	delay func(url string) time.Duration
	calls atomic.Int64
}

func (f *fakeDateSource) Name() string { return f.name }

func (f *fakeDateSource) DateFor(_ context.Context, s domain.Summary) (string, error) {
	f.calls.Add(1)
	if f.delay != nil {
		time.Sleep(f.delay(s.URL))
	}
	if f.err != nil {
		return "", f.err
	}
	return f.dates[s.URL], nil
}

func TestResolveSkipsRecordsWithDates(t *testing.T) {
	t.Parallel()

	src := &fakeDateSource{name: "crossref", dates: map[string]string{"u": "2024-01-01"}}
	r := NewResolver(1, discardLogger(), src)

	got := r.Resolve(context.Background(), domain.Summary{URL: "u", Date: "2020-06-01"})
	assert.Equal(t, "2020-06-01", got)
	assert.Zero(t, src.calls.Load(), "no lookup for records that already have a date")
}

func TestResolveFallbackOrdering(t *testing.T) {
	t.Parallel()

	primary := &fakeDateSource{name: "crossref"}
	fallback := &fakeDateSource{name: "page", dates: map[string]string{"u": "2021-03-01"}}
	r := NewResolver(1, discardLogger(), primary, fallback)

	got := r.Resolve(context.Background(), domain.Summary{URL: "u"})
	assert.Equal(t, "2021-03-01", got)
	assert.Equal(t, int64(1), primary.calls.Load(), "primary tried first")
}

func TestResolveFallbackOnPrimaryError(t *testing.T) {
	t.Parallel()

	primary := &fakeDateSource{name: "crossref", err: errors.New("unreachable")}
	fallback := &fakeDateSource{name: "page", dates: map[string]string{"u": "2021-03-01"}}
	r := NewResolver(1, discardLogger(), primary, fallback)

	assert.Equal(t, "2021-03-01", r.Resolve(context.Background(), domain.Summary{URL: "u"}))
}

func TestResolvePrimaryWins(t *testing.T) {
	t.Parallel()

	primary := &fakeDateSource{name: "crossref", dates: map[string]string{"u": "2019-12-01"}}
	fallback := &fakeDateSource{name: "page", dates: map[string]string{"u": "2021-03-01"}}
	r := NewResolver(1, discardLogger(), primary, fallback)

	assert.Equal(t, "2019-12-01", r.Resolve(context.Background(), domain.Summary{URL: "u"}))
	assert.Zero(t, fallback.calls.Load())
}

func TestResolveAllSourcesFail(t *testing.T) {
	t.Parallel()

	r := NewResolver(1, discardLogger(),
		&fakeDateSource{name: "crossref", err: errors.New("timeout")},
		&fakeDateSource{name: "page"})

	assert.Empty(t, r.Resolve(context.Background(), domain.Summary{URL: "u"}))
}

// TestResolveManyPositionalIntegrity forces out-of-order completion by making
// earlier indices sleep longer, then checks every date lands at its original
// index.
func TestResolveManyPositionalIntegrity(t *testing.T) {
	t.Parallel()

	const n = 8
	dates := map[string]string{}
	delays := map[string]time.Duration{}
	summaries := make([]domain.Summary, n)
	for i := range summaries {
		url := fmt.Sprintf("https://www.cochrane.org/CD%06d", i)
		summaries[i] = domain.Summary{URL: url}
		dates[url] = fmt.Sprintf("2020-01-%02d", i+1)
		delays[url] = time.Duration(n-i) * 5 * time.Millisecond
	}

	src := &fakeDateSource{
		name:  "crossref",
		dates: dates,
		delay: func(url string) time.Duration { return delays[url] },
	}
	r := NewResolver(3, discardLogger(), src)

	updated, failed := r.ResolveMany(context.Background(), summaries)
	assert.Equal(t, n, updated)
	assert.Zero(t, failed)

	for i := range summaries {
		require.Equal(t, fmt.Sprintf("2020-01-%02d", i+1), summaries[i].Date, "index %d", i)
	}
}

func TestResolveManyFailureIsolation(t *testing.T) {
	t.Parallel()

	summaries := []domain.Summary{
		{URL: "ok"},
		{URL: "broken"},
		{URL: "dated", Date: "2018-01-01"},
	}
	src := &fakeDateSource{name: "crossref", dates: map[string]string{"ok": "2022-04-01"}}
	r := NewResolver(2, discardLogger(), src)

	updated, failed := r.ResolveMany(context.Background(), summaries)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, failed)

	assert.Equal(t, "2022-04-01", summaries[0].Date)
	assert.Empty(t, summaries[1].Date)
	assert.Equal(t, "2018-01-01", summaries[2].Date, "dated record untouched")
}

func TestResolveManyNothingNeeded(t *testing.T) {
	t.Parallel()

	src := &fakeDateSource{name: "crossref"}
	r := NewResolver(2, discardLogger(), src)

	updated, failed := r.ResolveMany(context.Background(), []domain.Summary{{URL: "u", Date: "2020-01-01"}})
	assert.Zero(t, updated)
	assert.Zero(t, failed)
	assert.Zero(t, src.calls.Load())
}
