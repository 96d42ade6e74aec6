package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heycochrane/reviewbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const seedYAML = `- question: "Does it work?"
  answer: "Yes, somewhat."
  url: https://www.cochrane.org/CD000001
  notes: "older entry"
  interest: 5
  tags: []
`

func newStore(t *testing.T, seed string) (*YAMLStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summaries.yml")
	if seed != "" {
		require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	}
	return NewYAMLStore(path, discardLogger()), path
}

func TestExists(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, seedYAML)

	assert.True(t, store.Exists("CD000001"))
	assert.False(t, store.Exists("CD000002"))
	// Token match, not substring: CD00000 is a prefix of an existing code.
	assert.False(t, store.Exists("CD00000"))
}

func TestExistsMissingFile(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "")
	assert.False(t, store.Exists("CD000001"))
}

func TestAppendPreservesExistingContent(t *testing.T) {
	t.Parallel()

	store, path := newStore(t, seedYAML)

	err := store.Append([]domain.Summary{{
		Question: "Does exercise reduce pain?",
		Answer:   "Reduces pain in 60% of patients.",
		URL:      "https://www.cochranelibrary.com/cdsr/doi/10.1002/14651858.CD012345/full",
		Notes:    "Moderate evidence.\nTwelve trials.",
		Interest: 7,
		Tags:     []string{"pain"},
	}})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), seedYAML), "existing entries untouched")
	assert.Contains(t, string(raw), "# New reviews added by automation")

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "https://www.cochrane.org/CD000001", all[0].URL)
	assert.Equal(t, 7, all[1].Interest)
	assert.Equal(t, []string{"pain"}, all[1].Tags)
	assert.Equal(t, "Moderate evidence.\nTwelve trials.", all[1].Notes)
	assert.Empty(t, all[1].Date, "new entries carry no date")
}

func TestAppendNothing(t *testing.T) {
	t.Parallel()

	store, path := newStore(t, seedYAML)
	require.NoError(t, store.Append(nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seedYAML, string(raw))
}

func TestAppendValidationGate(t *testing.T) {
	t.Parallel()

	// A store that was already corrupt fails validation after the append,
	// and the error must surface so the run exits non-zero.
	store, _ := newStore(t, "- question: [unclosed\n")

	err := store.Append([]domain.Summary{{Question: "Q", Answer: "A", URL: "https://x/CD012345"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestSaveAllRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, seedYAML)

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Empty(t, all[0].Date)

	all[0].Date = "2015-09-01"
	require.NoError(t, store.SaveAll(all))

	reloaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, "2015-09-01", reloaded[0].Date)
	assert.Equal(t, "Does it work?", reloaded[0].Question)
}

func TestAppendToMissingFileCreatesIt(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "")

	err := store.Append([]domain.Summary{{
		Question: "Q", Answer: "A",
		URL:  "https://www.cochrane.org/CD012345",
		Tags: []string{},
	}})
	require.NoError(t, err)

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "CD012345", all[0].CDNumber())
}
