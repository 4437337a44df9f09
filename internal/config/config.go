package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrInvalidBaseURL      = errors.New("base_url must not be empty")
	ErrInvalidPollInterval = errors.New("poll_interval must be positive")
)

// Config holds the scopedoc client configuration.
type Config struct {
	BaseURL         string        // backend serving chat and version endpoints
	APIKey          string        // optional bearer token
	EnableWebSearch bool          // forwarded with each chat turn
	UsePerplexity   bool          // forwarded with each chat turn
	PollInterval    time.Duration // run-status poll cadence
	SessionDir      string        // durable session snapshot cache
}

// Load reads configuration from ~/.config/scopedoc/config.yaml with
// SCOPEDOC_* environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "scopedoc"))
	}
	v.SetEnvPrefix("scopedoc")
	v.AutomaticEnv()

	// A missing config file is fine; defaults and env cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("base_url", "http://localhost:8000/api")
	v.SetDefault("poll_interval", "5s")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("session_dir", filepath.Join(home, ".scopedoc", "sessions"))
	}

	cfg := &Config{
		BaseURL:         v.GetString("base_url"),
		APIKey:          v.GetString("api_key"),
		EnableWebSearch: v.GetBool("enable_web_search"),
		UsePerplexity:   v.GetBool("use_perplexity"),
		PollInterval:    v.GetDuration("poll_interval"),
		SessionDir:      v.GetString("session_dir"),
	}

	if cfg.BaseURL == "" {
		return nil, ErrInvalidBaseURL
	}
	if cfg.PollInterval <= 0 {
		return nil, ErrInvalidPollInterval
	}
	return cfg, nil
}
