package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	want := []string{"analyze", "enqueue", "process-pending", "status", "serve", "init", "prompts", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2024-05-01")
	defer SetVersion("dev", "none", "unknown")

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "caseanalyzer 1.2.3") {
		t.Errorf("version output = %q", out.String())
	}
	if !strings.Contains(out.String(), "commit: abc123") {
		t.Errorf("version output missing commit: %q", out.String())
	}
	if GetVersion() != "1.2.3" {
		t.Errorf("GetVersion() = %q", GetVersion())
	}
}

func TestInitWorkspace(t *testing.T) {
	dir := t.TempDir()
	c := &cobra.Command{}
	var out bytes.Buffer
	c.SetOut(&out)

	if err := initWorkspace(c, dir, false); err != nil {
		t.Fatalf("initWorkspace() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if string(data) != config.DefaultConfigYAML {
		t.Error("written config differs from the default template")
	}
	for _, sub := range []string{"cases", ".caseanalyzer/reports"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", sub)
		}
	}

	if err := initWorkspace(c, dir, false); err == nil {
		t.Error("expected error when configuration exists")
	}
	if err := initWorkspace(c, dir, true); err != nil {
		t.Errorf("initWorkspace(force) error = %v", err)
	}
}

func TestParseSkips(t *testing.T) {
	opts, err := parseSkips([]string{"comparing_facts", " scoring_credibility "})
	if err != nil {
		t.Fatalf("parseSkips() error = %v", err)
	}
	if !opts.SkipComparison || !opts.SkipCredibility {
		t.Errorf("expected comparison and credibility skipped, got %+v", opts)
	}
	if opts.SkipExtraction || opts.SkipTimeline || opts.SkipContradictions {
		t.Errorf("unexpected skips: %+v", opts)
	}

	if _, err := parseSkips([]string{"summarizing"}); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestResolveCaseSource(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		args       []string
		wantCase   string
		wantLoader bool
		wantErr    bool
	}{
		{name: "case id", args: []string{"case-1"}, wantCase: "case-1"},
		{name: "nothing", wantErr: true},
		{name: "file", file: "disputes/case-9.yaml", wantCase: "case-9", wantLoader: true},
		{name: "file and matching id", file: "disputes/case-9.json", args: []string{"case-9"}, wantCase: "case-9", wantLoader: true},
		{name: "file and other id", file: "disputes/case-9.yaml", args: []string{"case-1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzeFile = tt.file
			defer func() { analyzeFile = "" }()

			caseID, loader, err := resolveCaseSource(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveCaseSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if caseID != tt.wantCase {
				t.Errorf("caseID = %q, want %q", caseID, tt.wantCase)
			}
			if (loader != nil) != tt.wantLoader {
				t.Errorf("loader = %v, want loader %v", loader, tt.wantLoader)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	if got := progressBar(50, 10); got != "█████░░░░░" {
		t.Errorf("progressBar(50, 10) = %q", got)
	}
	if got := progressBar(150, 4); got != "████" {
		t.Errorf("progressBar(150, 4) = %q", got)
	}
}
