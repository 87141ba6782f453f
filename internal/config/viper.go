// Package config provides Viper-based hierarchical configuration management.
// Driver, collector and export settings live in one explicit Config object
// that gets injected where it is needed, so collection logic carries no
// ambient process-wide state.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	Driver struct {
		SnapshotDir string `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
		LabelXPath  string `mapstructure:"label_xpath" yaml:"label_xpath"`
	} `mapstructure:"driver" yaml:"driver"`

	Collector struct {
		MaxPasses        int  `mapstructure:"max_passes" yaml:"max_passes"`
		StallThreshold   int  `mapstructure:"stall_threshold" yaml:"stall_threshold"`
		RetryAttempts    int  `mapstructure:"retry_attempts" yaml:"retry_attempts"`
		RetryDelayMs     int  `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
		MergeDateContext bool `mapstructure:"merge_date_context" yaml:"merge_date_context"`
	} `mapstructure:"collector" yaml:"collector"`

	AI struct {
		Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
		Model            string `mapstructure:"model" yaml:"model"`
		FallbackCategory string `mapstructure:"fallback_category" yaml:"fallback_category"`
		APIKey           string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Categorization struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"categorization" yaml:"categorization"`

	Export struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"export" yaml:"export"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then config file, then WIO_-prefixed environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.wio-csv")
	v.AddConfigPath(".wio-csv")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars on an unreadable file.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API key always comes from the unprefixed environment variable.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("driver.snapshot_dir", "snapshots")
	v.SetDefault("driver.label_xpath", "")

	v.SetDefault("collector.max_passes", 50)
	v.SetDefault("collector.stall_threshold", 3)
	v.SetDefault("collector.retry_attempts", 3)
	v.SetDefault("collector.retry_delay_ms", 500)
	v.SetDefault("collector.merge_date_context", true)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.fallback_category", "")

	v.SetDefault("categorization.file", "categories.yaml")

	v.SetDefault("export.directory", "output")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", config.Log.Format)
	}
	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", config.CSV.Delimiter)
	}
	if config.Collector.MaxPasses <= 0 {
		return fmt.Errorf("collector.max_passes must be positive")
	}
	if config.Collector.StallThreshold <= 0 {
		return fmt.Errorf("collector.stall_threshold must be positive")
	}
	return nil
}

// ConfigureLoggingFromConfig builds a logrus logger from the Log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
