package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <case-id>...",
	Short: "Queue cases for batch analysis",
	Long: `Record a QUEUED job for each case so 'process-pending' or the server
worker picks it up. Cases without a readable input or a claimant statement
are rejected. Use --all to queue every case in the input directory.`,
	RunE: runEnqueue,
}

var enqueueAll bool

func init() {
	rootCmd.AddCommand(enqueueCmd)
	enqueueCmd.Flags().BoolVar(&enqueueAll, "all", false, "Queue every case in the input directory")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	caseIDs := args
	if enqueueAll {
		caseIDs, err = rt.loader.List()
		if err != nil {
			return fmt.Errorf("listing cases: %w", err)
		}
	}
	if len(caseIDs) == 0 {
		return fmt.Errorf("no cases given")
	}

	ctx := cmd.Context()
	var failed int
	for _, caseID := range caseIDs {
		if _, err := rt.loader.Load(ctx, caseID); err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", errorStyle().Render("✗"), caseID, err)
			continue
		}
		job, err := rt.store.Enqueue(ctx, caseID)
		if err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", errorStyle().Render("✗"), caseID, err)
			continue
		}
		fmt.Printf("%s %s queued as %s\n", successStyle().Render("✓"), caseID, mutedStyle().Render(job.ID))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cases could not be queued", failed, len(caseIDs))
	}
	return nil
}
