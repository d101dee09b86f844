package model

import (
	"fmt"
	"net/url"
	"runtime"
	"time"
)

// Config holds the complete pipeline configuration. Values come from
// defaults, the config file, TEACHHANNA_* environment variables, and CLI
// flags, in increasing priority.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Sink         SinkConfig         `yaml:"sink" mapstructure:"sink"`
	Exclusions   ExclusionsConfig   `yaml:"exclusions" mapstructure:"exclusions"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Defaults     DefaultsConfig     `yaml:"defaults" mapstructure:"defaults"`
	Robots       RobotsConfig       `yaml:"robots" mapstructure:"robots"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Shoko        ShokoConfig        `yaml:"shoko" mapstructure:"shoko"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound fetches to source sites.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxTextRunes  int           `yaml:"max_text_runes" mapstructure:"max_text_runes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	CACertPath    string        `yaml:"ca_cert_path" mapstructure:"ca_cert_path"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// SinkConfig controls delivery to the TeachHanna webhook.
type SinkConfig struct {
	WebhookURL  string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`
}

// ExclusionsConfig points at the excluded-domains artifact.
type ExclusionsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ConcurrencyConfig bounds the batch worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig bounds per-domain request rates.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// DefaultsConfig supplies confidence values when the caller omits them.
type DefaultsConfig struct {
	WebConfidence    float64 `yaml:"web_confidence" mapstructure:"web_confidence"`
	ManualConfidence float64 `yaml:"manual_confidence" mapstructure:"manual_confidence"`
}

// RobotsConfig toggles robots.txt checks before fetching.
type RobotsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// CacheConfig controls the in-run fetch cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
}

// ShokoConfig points at a Shoko Server instance for anime metadata lookups.
type ShokoConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OutputConfig controls CLI reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "HannaWebScraper/1.0 (+https://botinfo.hivenet.dev/)",
			MaxBodyBytes: 2_000_000,
			MaxTextRunes: 100_000,
		},
		Sink: SinkConfig{
			Timeout:     10 * time.Second,
			MaxRetries:  3,
			BackoffBase: 500 * time.Millisecond,
			BackoffMax:  30 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Defaults: DefaultsConfig{
			WebConfidence:    0.8,
			ManualConfidence: 1.0,
		},
		Robots: RobotsConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Shoko: ShokoConfig{
			Timeout: 5 * time.Second,
		},
	}
}

// Validate checks for fatal configuration errors before any item is
// processed. An error here aborts the whole run.
func (c *Config) Validate() error {
	if c.Sink.WebhookURL == "" {
		return fmt.Errorf("sink webhook URL is not configured")
	}
	parsed, err := url.Parse(c.Sink.WebhookURL)
	if err != nil {
		return fmt.Errorf("parse webhook URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("webhook URL must be absolute http(s): %q", c.Sink.WebhookURL)
	}
	if c.Concurrency.Workers <= 0 {
		return fmt.Errorf("concurrency workers must be positive, got %d", c.Concurrency.Workers)
	}
	if c.Sink.MaxRetries <= 0 {
		return fmt.Errorf("sink max retries must be positive, got %d", c.Sink.MaxRetries)
	}
	if c.Defaults.WebConfidence < 0 || c.Defaults.WebConfidence > 1 {
		return fmt.Errorf("web confidence default %g outside [0.0, 1.0]", c.Defaults.WebConfidence)
	}
	if c.Defaults.ManualConfidence < 0 || c.Defaults.ManualConfidence > 1 {
		return fmt.Errorf("manual confidence default %g outside [0.0, 1.0]", c.Defaults.ManualConfidence)
	}
	return nil
}
