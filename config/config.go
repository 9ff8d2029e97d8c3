// Package config provides configuration loading and management for WebSentry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete WebSentry configuration.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Reports ReportsConfig `yaml:"reports"`
}

// ScannerConfig configures the page fetch stage.
type ScannerConfig struct {
	// Timeout bounds the single page fetch per scan
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent on every fetch
	UserAgent string `yaml:"user_agent"`
	// MaxContentSize bounds how much of the page body is read for title extraction
	MaxContentSize int64 `yaml:"max_content_size"`
	// HeaderSampleLimit bounds the headers_sample section of the report
	HeaderSampleLimit int `yaml:"header_sample_limit"`
}

// LLMConfig configures the optional AI-assisted executive summary.
type LLMConfig struct {
	// Enabled is the explicit opt-in flag for the LLM summary path
	Enabled bool `yaml:"enabled"`
	// Provider selects the adapter: "openai", "anthropic", or "ollama"
	Provider string `yaml:"provider"`
	// Endpoint is the provider base URL (empty = provider default)
	Endpoint string `yaml:"endpoint"`
	// Model is the model identifier to request
	Model string `yaml:"model"`
	// APIKey authenticates against the provider
	APIKey string `yaml:"api_key"`
	// MaxTokens bounds the summary length
	MaxTokens int `yaml:"max_tokens"`
	// Temperature controls creativity (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
	// Timeout bounds the single summarization call
	Timeout time.Duration `yaml:"timeout"`
}

// Active reports whether the AI-assisted summary path is usable: it
// requires both the opt-in flag and a configured credential. This is the
// configured capability, independent of whether a given call succeeds.
func (c LLMConfig) Active() bool {
	return c.Enabled && c.APIKey != ""
}

// ServerConfig configures the serve surface.
type ServerConfig struct {
	// Addr is the listen address for websentry serve
	Addr string `yaml:"addr"`
	// APIKey, when set, is required in X-API-Key on /scan-json
	APIKey string `yaml:"api_key"`
}

// ReportsConfig configures report persistence.
type ReportsConfig struct {
	// Dir is where per-scan JSON and HTML artifacts are written
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Timeout:           20 * time.Second,
			UserAgent:         "WebSentryAI/0.1 (+https://example.invalid)",
			MaxContentSize:    5 * 1024 * 1024,
			HeaderSampleLimit: 25,
		},
		LLM: LLMConfig{
			Enabled:     false,
			Provider:    "openai",
			Endpoint:    "",
			Model:       "gpt-4o-mini",
			APIKey:      "",
			MaxTokens:   140,
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Server: ServerConfig{
			Addr:   ":8080",
			APIKey: "",
		},
		Reports: ReportsConfig{
			Dir: "reports",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Scanner.Timeout <= 0 {
		return fmt.Errorf("scanner.timeout must be positive")
	}
	if c.Scanner.MaxContentSize <= 0 {
		return fmt.Errorf("scanner.max_content_size must be positive")
	}
	if c.Scanner.HeaderSampleLimit <= 0 {
		return fmt.Errorf("scanner.header_sample_limit must be positive")
	}
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	if c.Reports.Dir == "" {
		return fmt.Errorf("reports.dir is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Scanner
	if other.Scanner.Timeout != 0 {
		c.Scanner.Timeout = other.Scanner.Timeout
	}
	if other.Scanner.UserAgent != "" {
		c.Scanner.UserAgent = other.Scanner.UserAgent
	}
	if other.Scanner.MaxContentSize != 0 {
		c.Scanner.MaxContentSize = other.Scanner.MaxContentSize
	}
	if other.Scanner.HeaderSampleLimit != 0 {
		c.Scanner.HeaderSampleLimit = other.Scanner.HeaderSampleLimit
	}

	// LLM
	if other.LLM.Enabled {
		c.LLM.Enabled = true
	}
	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Endpoint != "" {
		c.LLM.Endpoint = other.LLM.Endpoint
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.MaxTokens != 0 {
		c.LLM.MaxTokens = other.LLM.MaxTokens
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.APIKey != "" {
		c.Server.APIKey = other.Server.APIKey
	}

	// Reports
	if other.Reports.Dir != "" {
		c.Reports.Dir = other.Reports.Dir
	}
}
