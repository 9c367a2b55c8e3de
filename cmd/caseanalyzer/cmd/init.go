package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
)

const configFileName = ".caseanalyzer.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a case analyzer workspace",
	Long: `Initialize a workspace in the current directory.
Writes an annotated .caseanalyzer.yaml and creates the cases and data
directories.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	return initWorkspace(cmd, cwd, initForce)
}

func initWorkspace(cmd *cobra.Command, dir string, force bool) error {
	configPath := filepath.Join(dir, configFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists, use --force to overwrite")
	}

	if err := config.AtomicWrite(configPath, []byte(config.DefaultConfigYAML)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	for _, sub := range []string{"cases", ".caseanalyzer", ".caseanalyzer/reports"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("creating directory %s: %w", sub, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Initialized case analyzer workspace in", dir)
	fmt.Fprintln(out, "Configuration file:", configFileName)
	fmt.Fprintln(out, "Set CASEANALYZER_REASONING_API_KEY, then run 'caseanalyzer analyze <case-id>'")
	return nil
}
