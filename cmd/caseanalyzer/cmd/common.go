package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/adapters/input"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/adapters/reasoning"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/events"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/logging"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service/analysis"
)

// runtime holds the collaborators shared by the commands.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	store  core.JobStore
	loader *input.DirLoader
	bus    *events.EventBus
}

// loadConfig loads and validates the configuration using the global viper
// instance so persistent flags take precedence.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// newRuntime opens the job store and builds the input loader and logger.
// The caller must Close the runtime.
func newRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if quiet {
		level = "warn"
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
	})

	store, err := state.NewJobStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		loader: input.NewDirLoader(cfg.Input.Dir),
		bus:    events.New(256),
	}, nil
}

// orchestrator builds the reasoning service and an orchestrator on top of
// the runtime. A missing provider or API key surfaces here as a
// configuration error.
func (rt *runtime) orchestrator() (*analysis.Orchestrator, error) {
	svc, err := reasoning.NewService(rt.cfg.Reasoning)
	if err != nil {
		return nil, err
	}
	return analysis.NewOrchestrator(analysis.Deps{
		Store:     rt.store,
		Reasoning: svc,
		Config:    rt.cfg.Pipeline,
		Costs:     rt.cfg.Costs,
		Events:    rt.bus,
		Logger:    rt.logger,
	})
}

// Close releases the store and the event bus.
func (rt *runtime) Close() {
	rt.bus.Close()
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing job store", "error", err)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
