package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"decklens/bundle"
	"decklens/classify"
)

// Config carries every tunable of a run. Components receive it (or a
// sub-struct) explicitly; nothing inside the extraction pipeline reads the
// environment on its own.
type Config struct {
	// OpenRouterAPIKey authenticates both the analysis and the vision
	// calls. Resolution order: flag, config file, OPENROUTER_API_KEY.
	OpenRouterAPIKey string `yaml:"openrouter_api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	VisionModel      string `yaml:"vision_model"`

	Classify classify.Thresholds `yaml:"classify"`
	Limits   bundle.Limits       `yaml:"limits"`

	// EnableOCR runs local tesseract over informative images as an extra
	// URL source. Needs the tesseract shared library at runtime.
	EnableOCR bool `yaml:"enable_ocr"`

	Research ResearchConfig `yaml:"research"`
}

// ResearchConfig bounds the best-effort URL enrichment pass.
type ResearchConfig struct {
	Enabled           bool   `yaml:"enabled"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	MaxURLs           int    `yaml:"max_urls"`
	UserAgent         string `yaml:"user_agent"`
}

// Timeout returns the per-request timeout as a duration.
func (r ResearchConfig) Timeout() time.Duration {
	return time.Duration(r.RequestTimeoutSec) * time.Second
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BaseURL:     "https://openrouter.ai/api/v1",
		Model:       "anthropic/claude-3.5-sonnet",
		VisionModel: "anthropic/claude-3.5-sonnet",
		Classify:    classify.DefaultThresholds(),
		Limits:      bundle.DefaultLimits(),
		Research: ResearchConfig{
			Enabled:           true,
			RequestTimeoutSec: 30,
			MaxURLs:           10,
			UserAgent:         "decklens/1.0",
		},
	}
}

// Load reads a yaml config file over the defaults. An empty path returns
// the defaults. The API key falls back to OPENROUTER_API_KEY either way.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.OpenRouterAPIKey == "" {
		cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.Research.RequestTimeoutSec <= 0 {
		cfg.Research.RequestTimeoutSec = 30
	}
	if cfg.Research.MaxURLs <= 0 {
		cfg.Research.MaxURLs = 10
	}
	if cfg.Research.UserAgent == "" {
		cfg.Research.UserAgent = "decklens/1.0"
	}
	return cfg, nil
}
