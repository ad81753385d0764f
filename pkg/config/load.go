package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GENCALL_PROVIDER_MODEL
const EnvPrefix = "GENCALL"

// DefaultEnvFile is loaded when Load is given no env files
const DefaultEnvFile = ".env"

// ErrInvalidConfig wraps every configuration error returned by Load
var ErrInvalidConfig = errors.New("invalid configuration")

// providerKeyEnv lists the conventional API key variables per provider, in lookup order
var providerKeyEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

var validate = validator.New()

// Load builds the configuration. Sources, lowest precedence first:
// defaults, the config file at configPath (yaml, json or toml; optional),
// and GENCALL_* environment variables. The env files (default ".env") are
// loaded into the environment first without overriding variables already
// set; missing env files are skipped.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: load env file %s: %w", ErrInvalidConfig, path, err)
		}
	}

	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read config file: %w", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrInvalidConfig, err)
	}

	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = providerKeyFromEnv(cfg.Provider.Name)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in defaults without reading files or the environment.
// The result has no API key and does not pass Validate for hosted providers.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return &cfg
}

// Validate checks cfg against its struct tags
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// setDefaults registers every key, which also makes AutomaticEnv see it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.model", "gpt-4o")
	v.SetDefault("provider.request_timeout", 60*time.Second)

	v.SetDefault("generation.max_tokens", 1000)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.retry_limit", 3)

	v.SetDefault("retry.initial_delay", time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter", true)

	v.SetDefault("batch.max_in_flight", 1)
	v.SetDefault("batch.placeholder", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("trace.file_path", "")
	v.SetDefault("trace.max_size_mb", 10)
	v.SetDefault("trace.max_rotated_files", 5)
	v.SetDefault("trace.db_path", "")

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("content.signoff", "")
}

func providerKeyFromEnv(provider string) string {
	for _, name := range providerKeyEnv[provider] {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
