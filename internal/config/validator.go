package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration. Credentials are not checked here; the
// reasoning service factory reports missing keys as configuration errors so
// commands that never call the service (status, serve) still work.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateReasoning(&cfg.Reasoning)
	v.validatePipeline(&cfg.Pipeline)
	v.validateCosts(&cfg.Costs)
	v.validateStore(&cfg.Store)
	v.validateBatch(&cfg.Batch)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateReasoning(cfg *ReasoningConfig) {
	switch cfg.Provider {
	case "anthropic", "openai":
	default:
		v.addError("reasoning.provider", cfg.Provider, "must be one of: anthropic, openai")
	}

	if strings.TrimSpace(cfg.Models.Fast) == "" {
		v.addError("reasoning.models.fast", cfg.Models.Fast, "model required")
	}
	if strings.TrimSpace(cfg.Models.Reasoning) == "" {
		v.addError("reasoning.models.reasoning", cfg.Models.Reasoning, "model required")
	}

	for name, n := range map[string]int{"fast": cfg.MaxTokens.Fast, "reasoning": cfg.MaxTokens.Reasoning} {
		if n <= 0 || n > 200000 {
			v.addError("reasoning.max_tokens."+name, n, "must be between 1 and 200000")
		}
	}

	if cfg.RateLimit.RPS < 0 {
		v.addError("reasoning.rate_limit.rps", cfg.RateLimit.RPS, "must be non-negative")
	}
	if cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst <= 0 {
		v.addError("reasoning.rate_limit.burst", cfg.RateLimit.Burst, "must be positive when rps is set")
	}

	if cfg.Cache.Enabled {
		v.validateDuration("reasoning.cache.ttl", cfg.Cache.TTL)
	}
}

func (v *Validator) validatePipeline(cfg *PipelineConfig) {
	v.validateDuration("pipeline.call_timeout", cfg.CallTimeout)
	v.validateDuration("pipeline.retry.base_delay", cfg.Retry.BaseDelay)
	v.validateDuration("pipeline.retry.max_delay", cfg.Retry.MaxDelay)

	if cfg.Retry.MaxAttempts < 1 || cfg.Retry.MaxAttempts > 10 {
		v.addError("pipeline.retry.max_attempts", cfg.Retry.MaxAttempts, "must be between 1 and 10")
	}
	if cfg.MinStatementChars < 0 {
		v.addError("pipeline.min_statement_chars", cfg.MinStatementChars, "must be non-negative")
	}
	if cfg.MaxStatementChars <= cfg.MinStatementChars {
		v.addError("pipeline.max_statement_chars", cfg.MaxStatementChars, "must exceed pipeline.min_statement_chars")
	}
	if cfg.MaxDescriptionChars <= 0 {
		v.addError("pipeline.max_description_chars", cfg.MaxDescriptionChars, "must be positive")
	}
}

func (v *Validator) validateCosts(cfg *CostsConfig) {
	for name, p := range map[string]TokenPrice{"fast": cfg.Fast, "reasoning": cfg.Reasoning} {
		if p.InputPerMTok < 0 {
			v.addError("costs."+name+".input_per_mtok", p.InputPerMTok, "must be non-negative")
		}
		if p.OutputPerMTok < 0 {
			v.addError("costs."+name+".output_per_mtok", p.OutputPerMTok, "must be non-negative")
		}
	}
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	switch cfg.Backend {
	case "sqlite":
		if strings.TrimSpace(cfg.Path) == "" {
			v.addError("store.path", cfg.Path, "path required for sqlite backend")
		}
	case "memory":
	default:
		v.addError("store.backend", cfg.Backend, "must be one of: sqlite, memory")
	}
}

func (v *Validator) validateBatch(cfg *BatchConfig) {
	if cfg.Workers < 1 || cfg.Workers > 64 {
		v.addError("batch.workers", cfg.Workers, "must be between 1 and 64")
	}
	if cfg.Limit < 1 {
		v.addError("batch.limit", cfg.Limit, "must be positive")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
}

func (v *Validator) validateDuration(field, value string) {
	d, err := time.ParseDuration(value)
	if err != nil {
		v.addError(field, value, "invalid duration format")
		return
	}
	if d <= 0 {
		v.addError(field, value, "must be positive")
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
