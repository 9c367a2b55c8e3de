package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service/analysis"
)

var processCmd = &cobra.Command{
	Use:   "process-pending",
	Short: "Analyze queued cases",
	Long: `Run every QUEUED job, oldest first, on a bounded worker pool.
Defaults come from batch.workers and batch.limit.`,
	Args: cobra.NoArgs,
	RunE: runProcessPending,
}

var (
	processLimit   int
	processWorkers int
)

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().IntVar(&processLimit, "limit", 0, "Maximum jobs to run (default: batch.limit)")
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "Concurrent analyses (default: batch.workers)")
}

func runProcessPending(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	orch, err := rt.orchestrator()
	if err != nil {
		return err
	}

	limit := rt.cfg.Batch.Limit
	if processLimit > 0 {
		limit = processLimit
	}
	workers := rt.cfg.Batch.Workers
	if processWorkers > 0 {
		workers = processWorkers
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	batch := analysis.NewBatch(orch, rt.store, rt.loader, workers, rt.logger)
	rep, err := batch.ProcessPending(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d: %s, %s, %s\n", rep.Processed,
		successStyle().Render(fmt.Sprintf("%d completed", rep.Completed)),
		errorStyle().Render(fmt.Sprintf("%d failed", rep.Failed)),
		mutedStyle().Render(fmt.Sprintf("%d skipped", rep.Skipped)))
	return nil
}
