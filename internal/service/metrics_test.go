package service_test

import (
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/testutil"
)

func TestMetricsCollector_Run(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.StartRun()
	time.Sleep(10 * time.Millisecond)
	collector.EndRun()

	metrics := collector.GetRunMetrics()
	testutil.AssertTrue(t, metrics.TotalDuration > 0, "duration should be positive")
	testutil.AssertTrue(t, !metrics.StartTime.IsZero(), "start time should be set")
	testutil.AssertTrue(t, !metrics.EndTime.IsZero(), "end time should be set")
}

func TestMetricsCollector_RecordCall(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordCall(core.PhaseExtraction, service.CallRecord{
		TokensIn:  100,
		TokensOut: 50,
		CostUSD:   0.01,
		Duration:  time.Second,
	})
	collector.RecordCall(core.PhaseExtraction, service.CallRecord{
		TokensIn:  100,
		TokensOut: 50,
		Cached:    true,
	})

	rm := collector.GetRunMetrics()
	testutil.AssertEqual(t, rm.Calls, 2)
	testutil.AssertEqual(t, rm.TotalTokensIn, 200)
	testutil.AssertEqual(t, rm.TotalTokensOut, 100)
	testutil.AssertEqual(t, rm.TotalCostUSD, 0.01)
	testutil.AssertEqual(t, rm.CacheHits, 1)

	pm, ok := collector.GetPhaseMetrics(core.PhaseExtraction)
	testutil.AssertTrue(t, ok, "phase metrics should exist")
	testutil.AssertEqual(t, pm.Calls, 2)
	testutil.AssertEqual(t, pm.Duration, time.Second)
}

func TestMetricsCollector_FailedCallCountsNoTokens(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordCall(core.PhaseTimeline, service.CallRecord{
		TokensIn: 100,
		Err:      testutil.ErrTest,
	})

	rm := collector.GetRunMetrics()
	testutil.AssertEqual(t, rm.CallsFailed, 1)
	testutil.AssertEqual(t, rm.TotalTokensIn, 0)

	pm, _ := collector.GetPhaseMetrics(core.PhaseTimeline)
	testutil.AssertEqual(t, pm.Failures, 1)
}

func TestMetricsCollector_Retries(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordRetry(core.PhaseComparison)
	collector.RecordRetry(core.PhaseComparison)

	testutil.AssertEqual(t, collector.GetRunMetrics().RetriesTotal, 2)
	pm, _ := collector.GetPhaseMetrics(core.PhaseComparison)
	testutil.AssertEqual(t, pm.Retries, 2)
}

func TestMetricsCollector_RecordOutcome(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordOutcome(core.PhaseDiagnostic{Phase: core.PhaseTimeline, Succeeded: false, Message: "boom"})
	collector.RecordOutcome(core.PhaseDiagnostic{Phase: core.PhaseContradictions, Succeeded: true, Skipped: true})

	rm := collector.GetRunMetrics()
	testutil.AssertEqual(t, rm.PhasesDegraded, 1)
	testutil.AssertEqual(t, rm.PhasesSkipped, 1)

	pm, _ := collector.GetPhaseMetrics(core.PhaseTimeline)
	testutil.AssertTrue(t, pm.Degraded, "timeline should be degraded")
	testutil.AssertEqual(t, pm.Diagnostic, "boom")
}

func TestMetricsCollector_AllPhasesInOrder(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordRetry(core.PhaseCredibility)
	collector.RecordRetry(core.PhaseExtraction)
	collector.RecordRetry(core.PhaseTimeline)

	all := collector.GetAllPhaseMetrics()
	testutil.AssertLen(t, all, 3)
	testutil.AssertEqual(t, all[0].Phase, core.PhaseExtraction)
	testutil.AssertEqual(t, all[1].Phase, core.PhaseTimeline)
	testutil.AssertEqual(t, all[2].Phase, core.PhaseCredibility)
}

func TestMetricsCollector_Reset(t *testing.T) {
	collector := service.NewMetricsCollector()

	collector.RecordCall(core.PhaseExtraction, service.CallRecord{TokensIn: 10})
	collector.Reset()

	testutil.AssertEqual(t, collector.GetRunMetrics().Calls, 0)
	_, ok := collector.GetPhaseMetrics(core.PhaseExtraction)
	testutil.AssertFalse(t, ok, "phase metrics should be cleared")
}

func TestCostTable_Cost(t *testing.T) {
	table := service.CostTable{}
	table.Fast.InputPerMTok = 1
	table.Fast.OutputPerMTok = 5
	table.Reasoning.InputPerMTok = 3
	table.Reasoning.OutputPerMTok = 15

	tests := []struct {
		name string
		tier core.QualityTier
		in   int
		out  int
		want float64
	}{
		{"fast", core.TierFast, 1_000_000, 0, 1},
		{"fast output", core.TierFast, 0, 1_000_000, 5},
		{"reasoning", core.TierReasoning, 1_000_000, 1_000_000, 18},
		{"zero", core.TierReasoning, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Cost(tt.tier, tt.in, tt.out); got != tt.want {
				t.Errorf("Cost() = %v, want %v", got, tt.want)
			}
		})
	}
}
