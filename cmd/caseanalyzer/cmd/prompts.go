package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the embedded prompt templates",
	Args:  cobra.NoArgs,
	RunE:  runPrompts,
}

var promptsJSON bool

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.Flags().BoolVar(&promptsJSON, "json", false, "Output as JSON")
}

func runPrompts(_ *cobra.Command, _ []string) error {
	renderer, err := service.NewPromptRenderer()
	if err != nil {
		return err
	}
	metas := renderer.ListTemplates()
	if promptsJSON {
		return outputJSON(metas)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPHASE\tTIER\tSHA256")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.ID, m.Phase, m.Phase.Tier(), m.Sha256[:12])
	}
	return w.Flush()
}
