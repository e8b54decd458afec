// Package config loads docedit configuration from file, environment, and
// defaults via viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete docedit configuration.
type Config struct {
	Planner PlannerConfig `mapstructure:"planner"`
	Match   MatchConfig   `mapstructure:"match"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PlannerConfig controls the AI backend used to produce edit plans.
type PlannerConfig struct {
	// Provider selects the backend: "anthropic", "openai", or "google"
	Provider string `mapstructure:"provider"`
	// Model is the provider-specific model identifier
	Model string `mapstructure:"model"`
	// MaxTokens caps the response size
	MaxTokens int `mapstructure:"max_tokens"`
	// Temperature is the sampling temperature (0.0 to 1.0)
	Temperature float64 `mapstructure:"temperature"`
}

// MatchConfig controls heading matching behavior.
type MatchConfig struct {
	// Scorer selects the fuzzy scorer: "heuristic" or "subsequence"
	Scorer string `mapstructure:"scorer"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		Match: MatchConfig{
			Scorer: "heuristic",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("planner.provider", defaults.Planner.Provider)
	viper.SetDefault("planner.model", defaults.Planner.Model)
	viper.SetDefault("planner.max_tokens", defaults.Planner.MaxTokens)
	viper.SetDefault("planner.temperature", defaults.Planner.Temperature)

	viper.SetDefault("match.scorer", defaults.Match.Scorer)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Init configures viper: defaults, config file discovery, and the DOCEDIT
// environment prefix (e.g. DOCEDIT_PLANNER_PROVIDER). A missing config file
// is not an error; everything has a default.
func Init() error {
	SetDefaults()

	viper.SetEnvPrefix("DOCEDIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(ConfigDir())
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: read config file: %w", err)
		}
	}
	return nil
}

// Load reads the configuration from viper into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.Planner.Provider {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("config: planner.provider must be one of anthropic, openai, google; got %q", c.Planner.Provider)
	}
	if c.Planner.MaxTokens <= 0 {
		return fmt.Errorf("config: planner.max_tokens must be positive; got %d", c.Planner.MaxTokens)
	}
	if c.Planner.Temperature < 0 || c.Planner.Temperature > 1 {
		return fmt.Errorf("config: planner.temperature must be between 0.0 and 1.0; got %g", c.Planner.Temperature)
	}
	switch c.Match.Scorer {
	case "heuristic", "subsequence":
	default:
		return fmt.Errorf("config: match.scorer must be heuristic or subsequence; got %q", c.Match.Scorer)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// SlogLevel maps the configured level string to a slog.Level. Unknown
// values fall back to info.
func (l *LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docedit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docedit"
	}
	return filepath.Join(home, ".config", "docedit")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
