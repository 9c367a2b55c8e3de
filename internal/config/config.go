package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Costs     CostsConfig     `mapstructure:"costs"`
	Store     StoreConfig     `mapstructure:"store"`
	Input     InputConfig     `mapstructure:"input"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Server    ServerConfig    `mapstructure:"server"`
	Report    ReportConfig    `mapstructure:"report"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReasoningConfig configures the reasoning service provider.
type ReasoningConfig struct {
	Provider  string          `mapstructure:"provider"`
	APIKey    string          `mapstructure:"api_key"`
	BaseURL   string          `mapstructure:"base_url"`
	Models    TierModels      `mapstructure:"models"`
	MaxTokens TierMaxTokens   `mapstructure:"max_tokens"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// TierModels maps quality tiers to provider model names.
type TierModels struct {
	Fast      string `mapstructure:"fast"`
	Reasoning string `mapstructure:"reasoning"`
}

// TierMaxTokens caps output tokens per quality tier.
type TierMaxTokens struct {
	Fast      int `mapstructure:"fast"`
	Reasoning int `mapstructure:"reasoning"`
}

// RateLimitConfig throttles reasoning calls across all runs in a process.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// CacheConfig configures the reasoning response cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     string `mapstructure:"ttl"`
}

// PipelineConfig configures phase execution.
type PipelineConfig struct {
	CallTimeout         string      `mapstructure:"call_timeout"`
	Retry               RetryConfig `mapstructure:"retry"`
	MinStatementChars   int         `mapstructure:"min_statement_chars"`
	MaxStatementChars   int         `mapstructure:"max_statement_chars"`
	MaxDescriptionChars int         `mapstructure:"max_description_chars"`
	ParallelExtraction  bool        `mapstructure:"parallel_extraction"`
}

// RetryConfig bounds retries of transient reasoning failures.
type RetryConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	BaseDelay   string `mapstructure:"base_delay"`
	MaxDelay    string `mapstructure:"max_delay"`
}

// CostsConfig holds per-tier token prices in USD per million tokens.
type CostsConfig struct {
	Fast      TokenPrice `mapstructure:"fast"`
	Reasoning TokenPrice `mapstructure:"reasoning"`
}

// TokenPrice is the price of input and output tokens.
type TokenPrice struct {
	InputPerMTok  float64 `mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `mapstructure:"output_per_mtok"`
}

// StoreConfig configures job persistence.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// InputConfig configures where case inputs are loaded from.
type InputConfig struct {
	Dir string `mapstructure:"dir"`
}

// BatchConfig configures the process-pending worker pool.
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
	Limit   int `mapstructure:"limit"`
}

// ServerConfig configures the status API.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ReportConfig configures exported analysis briefs.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// CallTimeoutDuration returns the per-call reasoning timeout.
func (c PipelineConfig) CallTimeoutDuration() time.Duration {
	return parseDurationOr(c.CallTimeout, 2*time.Minute)
}

// BaseDelayDuration returns the first retry backoff.
func (c RetryConfig) BaseDelayDuration() time.Duration {
	return parseDurationOr(c.BaseDelay, time.Second)
}

// MaxDelayDuration returns the backoff ceiling.
func (c RetryConfig) MaxDelayDuration() time.Duration {
	return parseDurationOr(c.MaxDelay, 10*time.Second)
}

// TTLDuration returns the cache entry lifetime.
func (c CacheConfig) TTLDuration() time.Duration {
	return parseDurationOr(c.TTL, time.Hour)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
