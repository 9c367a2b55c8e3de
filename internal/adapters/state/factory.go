package state

import (
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// Supported store backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// NewJobStore creates the configured job store.
func NewJobStore(cfg config.StoreConfig) (core.JobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendSQLite, "":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, core.ErrConfiguration(core.CodeInvalidConfig, "store.path is required for the sqlite backend")
		}
		store, err := NewSQLiteJobStore(cfg.Path)
		if err != nil {
			return nil, core.ErrPersistence(core.CodeWriteFailed, "opening job store").WithCause(err)
		}
		return store, nil
	case BackendMemory:
		return NewMemoryJobStore(), nil
	default:
		return nil, core.ErrConfiguration(core.CodeInvalidConfig, "unknown store backend: "+cfg.Backend)
	}
}
