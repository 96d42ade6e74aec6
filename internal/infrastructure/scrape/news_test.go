package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const newsHTML = `<html><body>
  <a href="/about">About</a>
  <a href="/CD001055">Tobacco cessation support</a>
  <a href="https://www.cochrane.org/CD009790">Exercise for back pain</a>
  <a href="/CD001055">Duplicate link to the same review</a>
  <a href="/news/unrelated-story">Unrelated</a>
</body></html>`

func TestDiscoverNormalizesAndDeduplicates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(newsHTML))
	}))
	defer server.Close()

	src := New(server.URL, "https://www.cochrane.org", "test-agent", server.Client(), discardLogger())

	candidates, err := src.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// First occurrence wins, page order preserved, relative links absolutized.
	assert.Equal(t, "CD001055", candidates[0].CDNumber)
	assert.Equal(t, "https://www.cochrane.org/CD001055", candidates[0].URL)
	assert.Equal(t, "Tobacco cessation support", candidates[0].Title)
	assert.Equal(t, "CD009790", candidates[1].CDNumber)
	assert.Equal(t, "https://www.cochrane.org/CD009790", candidates[1].URL)
}

func TestDiscoverNon200(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := New(server.URL, "https://www.cochrane.org", "test-agent", server.Client(), discardLogger())

	_, err := src.Discover(context.Background())
	assert.Error(t, err)
}
