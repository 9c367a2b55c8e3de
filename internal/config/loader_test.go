package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvFile("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Reasoning.Provider != "anthropic" {
		t.Errorf("Reasoning.Provider = %q, want anthropic", cfg.Reasoning.Provider)
	}
	if cfg.Pipeline.Retry.MaxAttempts != 2 {
		t.Errorf("Pipeline.Retry.MaxAttempts = %d, want 2", cfg.Pipeline.Retry.MaxAttempts)
	}
	if cfg.Pipeline.CallTimeoutDuration() != 2*time.Minute {
		t.Errorf("CallTimeoutDuration() = %v, want 2m", cfg.Pipeline.CallTimeoutDuration())
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path == "" {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("Batch.Workers = %d, want 4", cfg.Batch.Workers)
	}

	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoader_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
reasoning:
  provider: openai
  models:
    fast: gpt-4o-mini
    reasoning: o3-mini
pipeline:
  call_timeout: 45s
batch:
  workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader().WithConfigFile(path).WithEnvFile("")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Reasoning.Provider != "openai" || cfg.Reasoning.Models.Fast != "gpt-4o-mini" {
		t.Errorf("file values not applied: %+v", cfg.Reasoning)
	}
	if cfg.Pipeline.CallTimeoutDuration() != 45*time.Second {
		t.Errorf("CallTimeoutDuration() = %v, want 45s", cfg.Pipeline.CallTimeoutDuration())
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("Batch.Workers = %d, want 8", cfg.Batch.Workers)
	}
	// Untouched keys keep their defaults.
	if cfg.Reasoning.MaxTokens.Reasoning != 8192 {
		t.Errorf("MaxTokens.Reasoning = %d, want default 8192", cfg.Reasoning.MaxTokens.Reasoning)
	}
	if loader.ConfigFile() != path {
		t.Errorf("ConfigFile() = %q, want %q", loader.ConfigFile(), path)
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("CASEANALYZER_LOG_LEVEL", "debug")
	t.Setenv("CASEANALYZER_BATCH_WORKERS", "2")

	cfg, err := NewLoader().WithEnvFile("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Batch.Workers != 2 {
		t.Errorf("Batch.Workers = %d, want 2", cfg.Batch.Workers)
	}
}

func TestLoader_DotEnv(t *testing.T) {
	const key = "CASEANALYZER_REASONING_BASE_URL"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set in environment", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(key+"=http://localhost:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().WithEnvFile(envFile).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reasoning.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q, want value from .env", cfg.Reasoning.BaseURL)
	}
}

func TestLoader_MissingEnvFileIgnored(t *testing.T) {
	if _, err := NewLoader().WithEnvFile(filepath.Join(t.TempDir(), "absent.env")).Load(); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestLoader_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("reasoning: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader().WithConfigFile(path).WithEnvFile("").Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestDefaultConfigYAML_Loads(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".caseanalyzer.yaml")
	if err := AtomicWrite(path, []byte(DefaultConfigYAML)); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}
	cfg, err := NewLoader().WithConfigFile(path).WithEnvFile("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default YAML should validate, got %v", err)
	}
}
