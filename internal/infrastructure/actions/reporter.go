package actions

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const outputFileEnv = "GITHUB_OUTPUT"

// Reporter emits machine-readable key/value output for the external
// automation trigger: the GitHub Actions output file when running inside a
// workflow, stdout otherwise.
type Reporter struct {
	logger *slog.Logger
}

// NewReporter builds the output reporter.
func NewReporter(log *slog.Logger) *Reporter {
	return &Reporter{logger: log}
}

// Publish writes the processed count and the newly added review URLs.
func (r *Reporter) Publish(processed int, urls []string) error {
	var w io.Writer = os.Stdout

	if path := os.Getenv(outputFileEnv); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := fmt.Fprintf(w, "count=%d\n", processed); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	if _, err := fmt.Fprintf(w, "reviews=%s\n", strings.Join(urls, ",")); err != nil {
		return fmt.Errorf("write reviews: %w", err)
	}

	r.logger.Debug("published run output", "count", processed)
	return nil
}
