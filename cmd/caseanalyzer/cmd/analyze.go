package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/adapters/input"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service/analysis"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <case-id>",
	Short: "Analyze one case",
	Long: `Run the full analysis pipeline for one case and write its brief.

The case input is read from the input directory (input.dir) as
<case-id>.yaml, <case-id>.yml or <case-id>.json. Use --file to analyze a
case file stored elsewhere; the case id then defaults to the file name.

Examples:
  caseanalyzer analyze case-42
  caseanalyzer analyze --file ./disputes/case-42.yaml --render
  caseanalyzer analyze case-42 --skip scoring_credibility --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeFile     string
	analyzeSkip     []string
	analyzeForce    bool
	analyzeJSON     bool
	analyzeNoReport bool
	analyzeRender   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Case file to analyze")
	analyzeCmd.Flags().StringSliceVar(&analyzeSkip, "skip", nil,
		"Phases to skip (extracting_facts, comparing_facts, building_timeline, detecting_contradictions, scoring_credibility)")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Take over a job that is already processing")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoReport, "no-report", false, "Do not write the case brief")
	analyzeCmd.Flags().BoolVar(&analyzeRender, "render", false, "Render the brief in the terminal")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts, err := parseSkips(analyzeSkip)
	if err != nil {
		return err
	}
	opts.Force = analyzeForce

	caseID, loader, err := resolveCaseSource(args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if loader == nil {
		loader = rt.loader
	}

	orch, err := rt.orchestrator()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	in, err := loader.Load(ctx, caseID)
	if err != nil {
		return err
	}

	var progress core.ProgressFunc
	if !quiet && !analyzeJSON {
		progress = printProgress
	}
	result, err := orch.RunAnalysis(ctx, in, opts, progress)
	if err != nil {
		return err
	}

	if analyzeJSON {
		if err := outputJSON(result); err != nil {
			return err
		}
	} else {
		printSummary(result)
	}

	if !analyzeNoReport {
		writer := report.NewWriter(report.Config{BaseDir: rt.cfg.Report.Dir, UseUTC: true, Enabled: true})
		paths, err := writer.Write(result)
		if err != nil {
			return err
		}
		if !quiet && !analyzeJSON {
			fmt.Println(mutedStyle().Render("Brief written to " + paths.Brief))
		}
	}

	if analyzeRender && !analyzeJSON {
		if err := renderBrief(result); err != nil {
			return err
		}
	}

	if result.Status == core.JobFailed {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}

// resolveCaseSource returns the case id and, with --file, a loader rooted
// at the file's directory.
func resolveCaseSource(args []string) (string, *input.DirLoader, error) {
	if analyzeFile == "" {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("a case id or --file is required")
		}
		return args[0], nil, nil
	}
	base := filepath.Base(analyzeFile)
	caseID := strings.TrimSuffix(base, filepath.Ext(base))
	if len(args) > 0 && args[0] != caseID {
		return "", nil, fmt.Errorf("case id %q does not match file name %q", args[0], base)
	}
	return caseID, input.NewDirLoader(filepath.Dir(analyzeFile)), nil
}

// parseSkips maps phase names onto run options.
func parseSkips(names []string) (analysis.Options, error) {
	var opts analysis.Options
	for _, name := range names {
		p, err := core.ParsePhase(strings.TrimSpace(name))
		if err != nil {
			return opts, err
		}
		switch p {
		case core.PhaseExtraction:
			opts.SkipExtraction = true
		case core.PhaseComparison:
			opts.SkipComparison = true
		case core.PhaseTimeline:
			opts.SkipTimeline = true
		case core.PhaseContradictions:
			opts.SkipContradictions = true
		case core.PhaseCredibility:
			opts.SkipCredibility = true
		}
	}
	return opts, nil
}

func printProgress(p core.Progress) {
	label := p.Phase
	if phase, err := core.ParsePhase(p.Phase); err == nil {
		label = phase.Description()
	}
	line := fmt.Sprintf("%s %3d%%  %s", progressBar(p.Progress, 20), p.Progress, label)
	if p.Message != "" {
		line += mutedStyle().Render("  " + p.Message)
	}
	fmt.Fprintln(os.Stderr, line)
}

func printSummary(r *core.AnalysisResult) {
	fmt.Println()
	fmt.Println(headerStyle().Render("Case " + r.CaseID))
	fmt.Printf("  Status:          %s\n", statusStyle(r.Status).Render(string(r.Status)))
	if r.Error != "" {
		fmt.Printf("  Error:           %s\n", errorStyle().Render(r.Error))
	}
	fmt.Printf("  Facts:           %d claimant, %d respondent\n", len(r.ClaimantFacts), len(r.RespondentFacts))
	fmt.Printf("  Claims:          %d claimant, %d respondent\n", len(r.ClaimantClaims), len(r.RespondentClaims))
	fmt.Printf("  Disputed facts:  %d\n", len(r.DisputedFacts))
	fmt.Printf("  Timeline events: %d\n", len(r.Timeline))
	fmt.Printf("  Contradictions:  %d (score %.2f)\n", len(r.Contradictions), r.ContradictionScore)
	fmt.Printf("  Credibility:     claimant %.2f, respondent %.2f\n",
		r.Credibility.Claimant.Overall, r.Credibility.Respondent.Overall)
	fmt.Printf("  Tokens:          %d ($%.4f)\n", r.TokensUsed, r.EstimatedCost)
	for _, p := range r.DegradedPhases() {
		fmt.Println("  " + warningStyle().Render("degraded: "+p.Description()))
	}
}

func renderBrief(r *core.AnalysisResult) error {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	out, err := report.RenderTerminal(report.RenderBrief(r), width)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
