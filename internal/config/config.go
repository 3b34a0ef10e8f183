// Package config provides Viper-based hierarchical configuration
// management plus .env loading for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var loadEnvOnce sync.Once

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Ledger struct {
		BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
		RealmID  string `mapstructure:"realm_id" yaml:"realm_id"`
		Token    string `mapstructure:"token" yaml:"-"` // Never serialize credentials
		PageSize int    `mapstructure:"page_size" yaml:"page_size"`
		MaxRows  int    `mapstructure:"max_rows" yaml:"max_rows"`
	} `mapstructure:"ledger" yaml:"ledger"`

	BankFeed struct {
		BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
		ClientID string `mapstructure:"client_id" yaml:"client_id"`
		Secret   string `mapstructure:"secret" yaml:"-"` // Never serialize credentials
		PageSize int    `mapstructure:"page_size" yaml:"page_size"`
		MaxRows  int    `mapstructure:"max_rows" yaml:"max_rows"`
	} `mapstructure:"bankfeed" yaml:"bankfeed"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"ai" yaml:"ai"`

	Resolver struct {
		AutoApproveThreshold float64 `mapstructure:"auto_approve_threshold" yaml:"auto_approve_threshold"`
		MinConfidence        float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
		CategoryCacheMinutes int     `mapstructure:"category_cache_minutes" yaml:"category_cache_minutes"`
	} `mapstructure:"resolver" yaml:"resolver"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`
}

// InitializeConfig loads configuration hierarchically: defaults, then an
// optional config file, then LEDGERLENS-prefixed environment variables.
// Credentials additionally bind to their conventional unprefixed
// environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ledgerlens")
	v.AddConfigPath(".ledgerlens")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEDGERLENS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars; a broken config file
			// should not take the CLI down.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// Credentials always come from their conventional env vars.
	for key, env := range map[string]string{
		"ledger.token":    "LEDGER_API_TOKEN",
		"bankfeed.secret": "BANKFEED_SECRET",
		"ai.api_key":      "GEMINI_API_KEY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variable: %v\n", env, err)
		}
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

	v.SetDefault("ledger.base_url", "https://quickbooks.api.intuit.com")
	v.SetDefault("ledger.page_size", 200)
	v.SetDefault("ledger.max_rows", 10000)

	v.SetDefault("bankfeed.base_url", "https://production.plaid.com")
	v.SetDefault("bankfeed.page_size", 250)
	v.SetDefault("bankfeed.max_rows", 10000)

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("resolver.auto_approve_threshold", 0.95)
	v.SetDefault("resolver.min_confidence", 0.5)
	v.SetDefault("resolver.category_cache_minutes", 15)

	v.SetDefault("data.directory", "data")
}

func validateConfig(config *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[config.Log.Level] {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}
	if config.Ledger.PageSize <= 0 || config.BankFeed.PageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if config.Ledger.MaxRows <= 0 || config.BankFeed.MaxRows <= 0 {
		return fmt.Errorf("max row caps must be positive")
	}
	if t := config.Resolver.AutoApproveThreshold; t < 0 || t > 1 {
		return fmt.Errorf("auto approve threshold must be within [0,1]: %f", t)
	}
	if t := config.Resolver.MinConfidence; t < 0 || t > 1 {
		return fmt.Errorf("min confidence must be within [0,1]: %f", t)
	}
	return nil
}

// LoadEnv loads environment variables from a .env file if one exists in
// the working directory or the project root.
func LoadEnv() {
	loadEnvOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		if err := godotenv.Load(envFile); err != nil {
			logrus.Warnf("Error loading .env file: %v", err)
		}
	})
}
