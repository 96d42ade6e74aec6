package transform

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/heycochrane/reviewbot/internal/config"
	"github.com/heycochrane/reviewbot/internal/domain"
	"github.com/heycochrane/reviewbot/internal/ports"
)

//go:embed prompts/summarize.txt
var defaultSummarizePrompt string

//go:embed prompts/enrichment.txt
var defaultEnrichmentPrompt string

// jsonObjectExpr finds the first brace-delimited object in free model text.
var jsonObjectExpr = regexp.MustCompile(`\{[^{}]*\}`)

const (
	summarizeMaxTokens = 500
	enrichMaxTokens    = 100
	defaultInterest    = 5
)

// Transformer turns extracted summary text into structured records via the
// language-model capability. Model failures, unparseable responses, and
// explicit skip signals all degrade to nil results, never errors.
type Transformer struct {
	completer        ports.Completer
	summarizePrompt  string
	enrichmentPrompt string
	logger           *slog.Logger
}

var _ ports.Transformer = (*Transformer)(nil)

// New loads prompt templates (config paths override the embedded defaults).
func New(completer ports.Completer, cfg config.PromptConfig, log *slog.Logger) (*Transformer, error) {
	summarize, err := loadPrompt(cfg.SummarizePath, defaultSummarizePrompt)
	if err != nil {
		return nil, fmt.Errorf("load summarize prompt: %w", err)
	}
	enrichment, err := loadPrompt(cfg.EnrichmentPath, defaultEnrichmentPrompt)
	if err != nil {
		return nil, fmt.Errorf("load enrichment prompt: %w", err)
	}

	return &Transformer{
		completer:        completer,
		summarizePrompt:  summarize,
		enrichmentPrompt: enrichment,
		logger:           log,
	}, nil
}

func loadPrompt(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type summaryResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Notes    string `json:"notes"`
	Skip     bool   `json:"skip"`
	Reason   string `json:"reason"`
}

// Summarize generates a question/answer/notes record from a plain language
// summary. Returns nil when the model signals a skip or the response does
// not contain a usable JSON object.
func (t *Transformer) Summarize(ctx context.Context, pls string) *domain.Summary {
	// Placeholder replacement instead of a template engine: the prompt
	// wording itself contains literal JSON braces.
	prompt := strings.ReplaceAll(t.summarizePrompt, "{plain_language_summary}", pls)

	response, err := t.completer.Complete(ctx, prompt, summarizeMaxTokens)
	if err != nil {
		t.logger.Warn("summarize call failed", "error", err)
		return nil
	}

	var parsed summaryResponse
	if !t.parseObject(response, &parsed) {
		return nil
	}

	if parsed.Skip {
		reason := parsed.Reason
		if reason == "" {
			reason = "no results"
		}
		t.logger.Info("review skipped by model", "reason", reason)
		return nil
	}

	if parsed.Question == "" || parsed.Answer == "" {
		t.logger.Warn("model response missing question or answer")
		return nil
	}

	return &domain.Summary{
		Question: parsed.Question,
		Answer:   parsed.Answer,
		Notes:    parsed.Notes,
	}
}

type enrichmentResponse struct {
	Interest *int     `json:"interest"`
	Tags     []string `json:"tags"`
}

// Enrich adds an interest score and tags to the summary. Missing fields in
// the model output get defaults; an unusable response returns nil.
func (t *Transformer) Enrich(ctx context.Context, s domain.Summary) *domain.Summary {
	prompt := strings.ReplaceAll(t.enrichmentPrompt, "{question}", s.Question)
	prompt = strings.ReplaceAll(prompt, "{answer}", s.Answer)
	prompt = strings.ReplaceAll(prompt, "{notes}", s.Notes)

	response, err := t.completer.Complete(ctx, prompt, enrichMaxTokens)
	if err != nil {
		t.logger.Warn("enrichment call failed", "error", err)
		return nil
	}

	var parsed enrichmentResponse
	if !t.parseObject(response, &parsed) {
		return nil
	}

	s.Interest = defaultInterest
	if parsed.Interest != nil {
		s.Interest = *parsed.Interest
	}
	s.Tags = parsed.Tags
	if s.Tags == nil {
		s.Tags = []string{}
	}

	return &s
}

// parseObject extracts and unmarshals the first JSON object in the response.
func (t *Transformer) parseObject(response string, v any) bool {
	raw := jsonObjectExpr.FindString(response)
	if raw == "" {
		t.logger.Warn("no JSON object in model response")
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.logger.Warn("unparseable JSON in model response", "error", err)
		return false
	}
	return true
}
