package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
	envFile    string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "CASEANALYZER",
		envFile:   ".env",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvFile sets the dotenv file read before the environment. An empty
// path disables dotenv loading.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (CASEANALYZER_*), including a .env file
// 3. Project config (.caseanalyzer.yaml in current directory)
// 4. User config (~/.config/caseanalyzer/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	// godotenv never overrides variables already set in the environment.
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", l.envFile, err)
		}
	}

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".caseanalyzer")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "caseanalyzer"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("reasoning.provider", "anthropic")
	l.v.SetDefault("reasoning.api_key", "")
	l.v.SetDefault("reasoning.base_url", "")
	l.v.SetDefault("reasoning.models.fast", "claude-3-5-haiku-latest")
	l.v.SetDefault("reasoning.models.reasoning", "claude-sonnet-4-20250514")
	l.v.SetDefault("reasoning.max_tokens.fast", 4096)
	l.v.SetDefault("reasoning.max_tokens.reasoning", 8192)
	l.v.SetDefault("reasoning.rate_limit.rps", 2.0)
	l.v.SetDefault("reasoning.rate_limit.burst", 4)
	l.v.SetDefault("reasoning.cache.enabled", true)
	l.v.SetDefault("reasoning.cache.ttl", "1h")

	l.v.SetDefault("pipeline.call_timeout", "2m")
	l.v.SetDefault("pipeline.retry.max_attempts", 2)
	l.v.SetDefault("pipeline.retry.base_delay", "1s")
	l.v.SetDefault("pipeline.retry.max_delay", "10s")
	l.v.SetDefault("pipeline.min_statement_chars", 20)
	l.v.SetDefault("pipeline.max_statement_chars", 12000)
	l.v.SetDefault("pipeline.max_description_chars", 2000)
	l.v.SetDefault("pipeline.parallel_extraction", true)

	l.v.SetDefault("costs.fast.input_per_mtok", 0.80)
	l.v.SetDefault("costs.fast.output_per_mtok", 4.00)
	l.v.SetDefault("costs.reasoning.input_per_mtok", 3.00)
	l.v.SetDefault("costs.reasoning.output_per_mtok", 15.00)

	l.v.SetDefault("store.backend", "sqlite")
	l.v.SetDefault("store.path", ".caseanalyzer/jobs.db")

	l.v.SetDefault("input.dir", "cases")

	l.v.SetDefault("batch.workers", 4)
	l.v.SetDefault("batch.limit", 20)

	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 8090)
	l.v.SetDefault("server.cors_origins", []string{})

	l.v.SetDefault("report.dir", ".caseanalyzer/reports")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}
