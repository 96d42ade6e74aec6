package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "REVIEWBOT_CONFIG"
	summariesPathEnv  = "REVIEWBOT_SUMMARIES"
	logLevelEnv       = "REVIEWBOT_LOG_LEVEL"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	anthropicModelEnv = "ANTHROPIC_MODEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Cochrane  CochraneConfig  `yaml:"cochrane"`
	Claude    ClaudeConfig    `yaml:"claude"`
	CrossRef  CrossRefConfig  `yaml:"crossref"`
	Backfill  BackfillConfig  `yaml:"backfill"`
	Store     StoreConfig     `yaml:"store"`
	Prompts   PromptConfig    `yaml:"prompts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DiscoveryConfig names the upstream listing endpoints.
type DiscoveryConfig struct {
	FeedURL string `yaml:"feedUrl"`
	NewsURL string `yaml:"newsUrl"`
}

// CochraneConfig describes the publisher site itself.
type CochraneConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	UserAgent string `yaml:"userAgent"`
}

// ClaudeConfig defines how to contact the Anthropic messages API.
type ClaudeConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Version  string `yaml:"version"`
}

// CrossRefConfig points at the bibliographic metadata API.
type CrossRefConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// BackfillConfig tunes the date-backfill flow.
type BackfillConfig struct {
	Workers   int    `yaml:"workers"`
	UserAgent string `yaml:"userAgent"`
}

// StoreConfig locates the summaries file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PromptConfig optionally overrides the embedded prompt templates.
type PromptConfig struct {
	SummarizePath  string `yaml:"summarizePath"`
	EnrichmentPath string `yaml:"enrichmentPath"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Backfill.Workers <= 0 {
		cfg.Backfill.Workers = defaultConfig().Backfill.Workers
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(summariesPathEnv); v != "" {
		c.Store.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Claude.APIKey = v
	}

	if v := os.Getenv(anthropicModelEnv); v != "" {
		c.Claude.Model = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Discovery.FeedURL != "" {
		base.Discovery.FeedURL = override.Discovery.FeedURL
	}
	if override.Discovery.NewsURL != "" {
		base.Discovery.NewsURL = override.Discovery.NewsURL
	}

	if override.Cochrane.BaseURL != "" {
		base.Cochrane.BaseURL = override.Cochrane.BaseURL
	}
	if override.Cochrane.UserAgent != "" {
		base.Cochrane.UserAgent = override.Cochrane.UserAgent
	}

	if override.Claude.Endpoint != "" {
		base.Claude.Endpoint = override.Claude.Endpoint
	}
	if override.Claude.Model != "" {
		base.Claude.Model = override.Claude.Model
	}
	if override.Claude.APIKey != "" {
		base.Claude.APIKey = override.Claude.APIKey
	}
	if override.Claude.Version != "" {
		base.Claude.Version = override.Claude.Version
	}

	if override.CrossRef.Endpoint != "" {
		base.CrossRef.Endpoint = override.CrossRef.Endpoint
	}

	if override.Backfill.Workers > 0 {
		base.Backfill.Workers = override.Backfill.Workers
	}
	if override.Backfill.UserAgent != "" {
		base.Backfill.UserAgent = override.Backfill.UserAgent
	}

	if override.Store.Path != "" {
		base.Store.Path = override.Store.Path
	}

	if override.Prompts.SummarizePath != "" {
		base.Prompts.SummarizePath = override.Prompts.SummarizePath
	}
	if override.Prompts.EnrichmentPath != "" {
		base.Prompts.EnrichmentPath = override.Prompts.EnrichmentPath
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Discovery: DiscoveryConfig{
			FeedURL: "https://www.cochranelibrary.com/cdsr/table-of-contents/rss.xml",
			NewsURL: "https://www.cochrane.org/news",
		},
		Cochrane: CochraneConfig{
			BaseURL:   "https://www.cochrane.org",
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Claude: ClaudeConfig{
			Endpoint: "https://api.anthropic.com/v1/messages",
			Model:    "claude-sonnet-4-20250514",
			APIKey:   "",
			Version:  "2023-06-01",
		},
		CrossRef: CrossRefConfig{
			Endpoint: "https://api.crossref.org",
		},
		Backfill: BackfillConfig{
			Workers:   5,
			UserAgent: "HeyCochrane/1.0 (https://github.com/heycochrane/reviewbot; mailto:contact@example.com)",
		},
		Store: StoreConfig{
			Path: "summaries.yml",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
