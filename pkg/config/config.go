// Package config loads gencall settings from defaults, an optional config
// file, a .env file and GENCALL_ environment variables.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Generation GenerationConfig `mapstructure:"generation"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Log        LogConfig        `mapstructure:"log"`
	Trace      TraceConfig      `mapstructure:"trace"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Content    ContentConfig    `mapstructure:"content"`
}

// ProviderConfig selects the completion provider.
type ProviderConfig struct {
	Name    string `mapstructure:"name" validate:"required,oneof=openai gemini anthropic ollama"`
	APIKey  string `mapstructure:"api_key" validate:"required_unless=Name ollama"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model" validate:"required"`
	// RequestTimeout bounds each provider call
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// GenerationConfig holds the default request parameters.
type GenerationConfig struct {
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RetryLimit  int     `mapstructure:"retry_limit" validate:"gte=0,lte=10"`
}

// RetryConfig shapes the backoff between attempts. A zero initial delay retries immediately.
type RetryConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" validate:"gte=0"`
	Multiplier   float64       `mapstructure:"multiplier" validate:"gte=1"`
	Jitter       bool          `mapstructure:"jitter"`
}

// BatchConfig holds batch generation settings.
type BatchConfig struct {
	MaxInFlight int    `mapstructure:"max_in_flight" validate:"gte=1,lte=32"`
	Placeholder string `mapstructure:"placeholder"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TraceConfig holds trace export settings. Empty paths disable the exporter.
type TraceConfig struct {
	FilePath        string `mapstructure:"file_path"`
	MaxSizeMB       int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxRotatedFiles int    `mapstructure:"max_rotated_files" validate:"gte=0"`
	DBPath          string `mapstructure:"db_path"`
}

// MetricsConfig toggles Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ContentConfig holds settings of the content helpers.
type ContentConfig struct {
	Signoff string `mapstructure:"signoff"`
}
