package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status [case-id]",
	Short: "Show analysis job status",
	Long: `Show the job of one case, or list jobs in a status when no case id is
given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var (
	statusJSON   bool
	statusFilter string
	statusLimit  int
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().StringVar(&statusFilter, "status", string(core.JobQueued),
		"Status to list (QUEUED, PROCESSING, COMPLETED, FAILED)")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 50, "Maximum jobs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if len(args) == 1 {
		job, err := rt.store.GetJobByCase(ctx, args[0])
		if err != nil {
			return err
		}
		if statusJSON {
			return outputJSON(job)
		}
		printJob(job)
		return nil
	}

	status, err := core.ParseJobStatus(statusFilter)
	if err != nil {
		return err
	}
	jobs, err := rt.store.ListByStatus(ctx, status, statusLimit)
	if err != nil {
		return err
	}
	if statusJSON {
		return outputJSON(jobs)
	}
	if len(jobs) == 0 {
		fmt.Printf("No %s jobs\n", status)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tJOB\tPHASE\tPROGRESS\tUPDATED")
	fmt.Fprintln(w, "----\t---\t-----\t--------\t-------")
	for _, job := range jobs {
		phase := string(job.SubPhase)
		if phase == "" {
			phase = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n",
			job.CaseID, job.ID, phase, job.Progress, job.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func printJob(job *core.AnalysisJob) {
	fmt.Println(headerStyle().Render("Case " + job.CaseID))
	fmt.Printf("Job:      %s\n", job.ID)
	fmt.Printf("Status:   %s\n", statusStyle(job.Status).Render(string(job.Status)))
	if job.SubPhase != "" {
		fmt.Printf("Phase:    %s\n", job.SubPhase.Description())
	}
	fmt.Printf("Progress: %s %d%%\n", progressBar(job.Progress, 20), job.Progress)
	fmt.Printf("Tokens:   %d ($%.4f)\n", job.TokensUsed, job.EstimatedCost)
	if job.ProcessingTime > 0 {
		fmt.Printf("Duration: %s\n", job.ProcessingTime.Round(time.Millisecond))
	}
	if job.FailureReason != "" {
		fmt.Printf("Failure:  %s\n", errorStyle().Render(job.FailureReason))
	}
	for _, d := range job.Diagnostics {
		switch {
		case d.Skipped:
			fmt.Printf("  %s %s %s\n", mutedStyle().Render("-"), d.Phase, mutedStyle().Render(d.Message))
		case !d.Succeeded:
			fmt.Printf("  %s %s %s\n", warningStyle().Render("!"), d.Phase, d.Message)
		default:
			fmt.Printf("  %s %s\n", successStyle().Render("✓"), d.Phase)
		}
	}
}
