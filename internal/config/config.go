package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// InputConfig holds the locations of the run inputs
type InputConfig struct {
	ContributionsPath string `mapstructure:"contributions_path"`
	PercentilePath    string `mapstructure:"percentile_path"`
}

// OutputConfig holds the location of the result file
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds the optional SQLite result archive configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// TelegramConfig holds run-summary notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and environment variables.
// An empty path uses defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DONATION_ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.contributions_path", "./input/itcont.txt")
	v.SetDefault("input.percentile_path", "./input/percentile.txt")
	v.SetDefault("output.path", "./output/repeat_donors.txt")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.db_path", "./data/donation-analytics.db")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Input.ContributionsPath == "" {
		return fmt.Errorf("input.contributions_path is required")
	}
	if c.Input.PercentilePath == "" {
		return fmt.Errorf("input.percentile_path is required")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}

	if c.Storage.Enabled && c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required when storage is enabled")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("telegram.max_retries must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ErrInvalidPercentile is returned when the percentile file does not hold
// a whole number between 1 and 100.
var ErrInvalidPercentile = errors.New("percentile must be an integer between 1 and 100")

// ParsePercentile converts a whole-number percentage into a fraction in (0, 1]
func ParsePercentile(s string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercentile, strings.TrimSpace(s))
	}
	if n < 1 || n > 100 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPercentile, n)
	}
	return float64(n) / 100.0, nil
}

// LoadPercentile reads the percentile from the first line of the file at path
func LoadPercentile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read percentile file: %w", err)
	}
	first, _, _ := strings.Cut(string(data), "\n")
	return ParsePercentile(first)
}
