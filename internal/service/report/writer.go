package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/fsutil"
)

// File names inside a case directory.
const (
	BriefFile  = "brief.md"
	ResultFile = "analysis.json"
)

// Config configures the report writer
type Config struct {
	BaseDir string // default: ".caseanalyzer/reports"
	UseUTC  bool   // default: true
	Enabled bool   // whether to write reports
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseDir: ".caseanalyzer/reports",
		UseUTC:  true,
		Enabled: true,
	}
}

// Paths are the files written for one case.
type Paths struct {
	Dir   string
	Brief string
	JSON  string
}

// Writer writes case briefs, one directory per case.
type Writer struct {
	mu     sync.Mutex
	config Config
	now    func() time.Time
}

// NewWriter creates a brief writer.
func NewWriter(cfg Config) *Writer {
	return &Writer{config: cfg, now: time.Now}
}

// IsEnabled returns whether report writing is enabled
func (w *Writer) IsEnabled() bool {
	return w.config.Enabled
}

// CaseDir returns the directory of a case's reports.
func (w *Writer) CaseDir(caseID string) string {
	return filepath.Join(w.config.BaseDir, sanitizeFilename(caseID))
}

// Write writes the Markdown brief and the JSON result of an analysis.
// Existing files are replaced atomically. A disabled writer returns empty
// paths and no error.
func (w *Writer) Write(r *core.AnalysisResult) (Paths, error) {
	if !w.config.Enabled {
		return Paths{}, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := w.CaseDir(r.CaseID)
	paths := Paths{
		Dir:   dir,
		Brief: filepath.Join(dir, BriefFile),
		JSON:  filepath.Join(dir, ResultFile),
	}
	if err := w.ensureWithinBaseDir(dir); err != nil {
		return Paths{}, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Paths{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	header, err := BriefFrontmatter(r, w.formatTime(w.now())).Render()
	if err != nil {
		return Paths{}, err
	}
	brief := header + RenderBrief(r)
	if err := fsutil.WriteFileAtomic(paths.Brief, []byte(brief), 0o640); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", paths.Brief, err)
	}

	data, err := RenderJSON(r)
	if err != nil {
		return Paths{}, err
	}
	if err := fsutil.WriteFileAtomic(paths.JSON, data, 0o640); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", paths.JSON, err)
	}
	return paths, nil
}

func (w *Writer) formatTime(t time.Time) time.Time {
	if w.config.UseUTC {
		return t.UTC()
	}
	return t
}

func (w *Writer) ensureWithinBaseDir(path string) error {
	baseAbs, err := filepath.Abs(w.config.BaseDir)
	if err != nil {
		return fmt.Errorf("resolving report directory: %w", err)
	}
	targetAbs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving report path: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("report path escapes report directory")
	}
	return nil
}
