package storage

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

const appendBoundary = "# New reviews added by automation"

// YAMLStore persists summaries as an ordered flat YAML file. New records are
// only ever appended; existing entries are rewritten solely by SaveAll when
// the backfill flow fills absent dates.
type YAMLStore struct {
	path   string
	logger *slog.Logger
}

var _ ports.SummaryStore = (*YAMLStore)(nil)

// NewYAMLStore wires the store against the given file path.
func NewYAMLStore(path string, log *slog.Logger) *YAMLStore {
	return &YAMLStore{path: path, logger: log}
}

// Exists reports whether the catalog code already occurs in the raw file
// text. A pattern scan, not a structured parse: cheap, and resilient to a
// malformed entry elsewhere in the file.
func (s *YAMLStore) Exists(cdNumber string) bool {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	for _, cd := range domain.CDNumbers(string(raw)) {
		if cd == cdNumber {
			return true
		}
	}
	return false
}

// Append writes the new entries after the existing content under a marked
// boundary, then re-validates the whole file. A validation failure is fatal
// to the run: appending onto corrupt state would compound it.
func (s *YAMLStore) Append(summaries []domain.Summary) error {
	if len(summaries) == 0 {
		return nil
	}

	entries, err := encodeEntries(summaries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("\n" + appendBoundary + "\n")
	buf.Write(entries)

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append entries: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	if err := s.validate(); err != nil {
		return fmt.Errorf("store validation after append: %w", err)
	}

	s.logger.Info("appended summaries", "count", len(summaries), "path", s.path)
	return nil
}

// LoadAll parses the full file into ordered summaries.
func (s *YAMLStore) LoadAll() ([]domain.Summary, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var summaries []domain.Summary
	if err := yaml.Unmarshal(raw, &summaries); err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}

	return summaries, nil
}

// SaveAll rewrites the whole file from the in-memory summaries. Used only by
// the backfill flow to fill previously-absent dates.
func (s *YAMLStore) SaveAll(summaries []domain.Summary) error {
	entries, err := encodeEntries(summaries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	if err := os.WriteFile(s.path, entries, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}

	s.logger.Info("rewrote store", "count", len(summaries), "path", s.path)
	return nil
}

func (s *YAMLStore) validate() error {
	_, err := s.LoadAll()
	return err
}

func encodeEntries(summaries []domain.Summary) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(summaries); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
