package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ProjectConfigFile is the name of the project-level config file.
const ProjectConfigFile = "websentry.yaml"

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (websentry.yaml in current or parent directories,
//    or an explicit path)
// 3. Environment variables (WEBSENTRY_*, OPENAI_API_KEY)
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	configPath := explicitPath
	if configPath == "" {
		configPath = l.findProjectConfig()
	}

	if configPath != "" {
		if fileConfig, err := LoadFromFile(configPath); err == nil {
			l.logger.Debug("Loaded config file", slog.String("path", configPath))
			config.Merge(fileConfig)
		} else if explicitPath != "" {
			// An explicitly requested config file must load.
			return nil, err
		} else {
			l.logger.Warn("Failed to load config file", slog.String("path", configPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No config file found, using defaults")
	}

	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overlays environment variables onto the config. Env wins over
// file values so deployments can keep credentials out of checked-in YAML.
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv("WEBSENTRY_LLM_ENABLED"); v != "" {
		config.LLM.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("WEBSENTRY_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("WEBSENTRY_LLM_ENDPOINT"); v != "" {
		config.LLM.Endpoint = v
	}
	if v := os.Getenv("WEBSENTRY_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("WEBSENTRY_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.LLM.MaxTokens = n
		} else {
			l.logger.Warn("Ignoring invalid WEBSENTRY_LLM_MAX_TOKENS", slog.String("value", v))
		}
	}
	if v := os.Getenv("WEBSENTRY_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.LLM.Temperature = f
		} else {
			l.logger.Warn("Ignoring invalid WEBSENTRY_LLM_TEMPERATURE", slog.String("value", v))
		}
	}
	if v := os.Getenv("WEBSENTRY_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.LLM.Timeout = d
		} else {
			l.logger.Warn("Ignoring invalid WEBSENTRY_LLM_TIMEOUT", slog.String("value", v))
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("WEBSENTRY_LLM_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("WEBSENTRY_API_KEY"); v != "" {
		config.Server.APIKey = v
	}
	if v := os.Getenv("WEBSENTRY_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("WEBSENTRY_REPORTS_DIR"); v != "" {
		config.Reports.Dir = v
	}
}

// findProjectConfig searches for websentry.yaml in current and parent directories.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
