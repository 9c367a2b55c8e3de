package service

import (
	"sort"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// MetricsCollector collects analysis run metrics.
type MetricsCollector struct {
	run    RunMetrics
	phases map[core.Phase]*PhaseMetrics
	mu     sync.RWMutex
}

// RunMetrics holds run-level metrics.
type RunMetrics struct {
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	TotalDuration  time.Duration `json:"total_duration"`
	TotalTokensIn  int           `json:"total_tokens_in"`
	TotalTokensOut int           `json:"total_tokens_out"`
	TotalCostUSD   float64       `json:"total_cost_usd"`
	Calls          int           `json:"calls"`
	CallsFailed    int           `json:"calls_failed"`
	CacheHits      int           `json:"cache_hits"`
	RetriesTotal   int           `json:"retries_total"`
	PhasesDegraded int           `json:"phases_degraded"`
	PhasesSkipped  int           `json:"phases_skipped"`
}

// PhaseMetrics holds phase-level metrics.
type PhaseMetrics struct {
	Phase      core.Phase    `json:"phase"`
	Calls      int           `json:"calls"`
	Failures   int           `json:"failures"`
	Retries    int           `json:"retries"`
	CacheHits  int           `json:"cache_hits"`
	TokensIn   int           `json:"tokens_in"`
	TokensOut  int           `json:"tokens_out"`
	CostUSD    float64       `json:"cost_usd"`
	Duration   time.Duration `json:"duration"`
	Degraded   bool          `json:"degraded"`
	Skipped    bool          `json:"skipped"`
	Diagnostic string        `json:"diagnostic,omitempty"`
}

// CallRecord describes one finished reasoning call.
type CallRecord struct {
	TokensIn  int
	TokensOut int
	CostUSD   float64
	Duration  time.Duration
	Cached    bool
	Err       error
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		phases: make(map[core.Phase]*PhaseMetrics),
	}
}

// StartRun marks run start.
func (m *MetricsCollector) StartRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run.StartTime = time.Now()
}

// EndRun marks run end.
func (m *MetricsCollector) EndRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run.EndTime = time.Now()
	m.run.TotalDuration = m.run.EndTime.Sub(m.run.StartTime)
}

// RecordCall records a reasoning call made on behalf of a phase.
func (m *MetricsCollector) RecordCall(phase core.Phase, rec CallRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm := m.phase(phase)
	pm.Calls++
	pm.Duration += rec.Duration
	m.run.Calls++

	if rec.Err != nil {
		pm.Failures++
		m.run.CallsFailed++
		return
	}

	pm.TokensIn += rec.TokensIn
	pm.TokensOut += rec.TokensOut
	pm.CostUSD += rec.CostUSD
	m.run.TotalTokensIn += rec.TokensIn
	m.run.TotalTokensOut += rec.TokensOut
	m.run.TotalCostUSD += rec.CostUSD

	if rec.Cached {
		pm.CacheHits++
		m.run.CacheHits++
	}
}

// RecordRetry records a retried call.
func (m *MetricsCollector) RecordRetry(phase core.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase(phase).Retries++
	m.run.RetriesTotal++
}

// RecordOutcome records how a phase ended.
func (m *MetricsCollector) RecordOutcome(d core.PhaseDiagnostic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm := m.phase(d.Phase)
	pm.Degraded = !d.Succeeded
	pm.Skipped = d.Skipped
	pm.Diagnostic = d.Message
	if pm.Degraded {
		m.run.PhasesDegraded++
	}
	if pm.Skipped {
		m.run.PhasesSkipped++
	}
}

func (m *MetricsCollector) phase(p core.Phase) *PhaseMetrics {
	pm, ok := m.phases[p]
	if !ok {
		pm = &PhaseMetrics{Phase: p}
		m.phases[p] = pm
	}
	return pm
}

// GetRunMetrics returns run metrics.
func (m *MetricsCollector) GetRunMetrics() RunMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.run
}

// GetPhaseMetrics returns metrics for a specific phase.
func (m *MetricsCollector) GetPhaseMetrics(p core.Phase) (*PhaseMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pm, ok := m.phases[p]
	if !ok {
		return nil, false
	}
	phaseCopy := *pm
	return &phaseCopy, true
}

// GetAllPhaseMetrics returns metrics for all phases in execution order.
func (m *MetricsCollector) GetAllPhaseMetrics() []*PhaseMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*PhaseMetrics, 0, len(m.phases))
	for _, pm := range m.phases {
		phaseCopy := *pm
		result = append(result, &phaseCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return core.PhaseOrder(result[i].Phase) < core.PhaseOrder(result[j].Phase)
	})
	return result
}

// Reset clears all metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.run = RunMetrics{}
	m.phases = make(map[core.Phase]*PhaseMetrics)
}
