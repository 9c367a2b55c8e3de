// Package input loads case inputs from the filesystem.
package input

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/fsutil"
)

// maxCaseFileBytes bounds a single case file.
const maxCaseFileBytes = 8 << 20

// extensions are tried in order when resolving a case file.
var extensions = []string{".yaml", ".yml", ".json"}

// DirLoader reads one case file per case from a directory. The file is
// named after the case id and may be YAML or JSON.
type DirLoader struct {
	dir string
}

// NewDirLoader creates a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

// Load implements core.InputLoader.
func (l *DirLoader) Load(ctx context.Context, caseID string) (*core.AnalysisInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.ErrCancelled("input load cancelled").WithCause(err)
	}
	if err := checkCaseID(caseID); err != nil {
		return nil, err
	}

	data, path, err := l.read(caseID)
	if err != nil {
		return nil, err
	}

	var in core.AnalysisInput
	// YAML is a superset of JSON, so one decoder serves both formats.
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, core.ErrInput(core.CodeInvalidInput, "case file is not valid YAML or JSON").
			WithCause(err).
			WithDetail("path", path)
	}
	if in.CaseID == "" {
		in.CaseID = caseID
	}
	if in.CaseID != caseID {
		return nil, core.ErrInput(core.CodeInvalidInput, "case file declares a different case id").
			WithDetail("path", path).
			WithDetail("declared", in.CaseID)
	}
	if err := in.Validate(); err != nil {
		return nil, core.ErrNoInput(caseID).WithCause(err)
	}
	return &in, nil
}

func (l *DirLoader) read(caseID string) ([]byte, string, error) {
	for _, ext := range extensions {
		path := filepath.Join(l.dir, caseID+ext)
		data, err := fsutil.ReadFileScoped(path, maxCaseFileBytes)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, core.ErrInput(core.CodeInvalidInput, "reading case file").
				WithCause(err).
				WithDetail("path", path)
		}
	}
	return nil, "", core.ErrNoInput(caseID)
}

// List returns the ids of all case files in the directory, sorted.
func (l *DirLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !knownExtension(ext) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ext)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func knownExtension(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func checkCaseID(caseID string) error {
	if strings.TrimSpace(caseID) == "" {
		return core.ErrInput(core.CodeMissingCaseID, "case id is required")
	}
	if strings.ContainsAny(caseID, `/\`) || strings.Contains(caseID, "..") {
		return core.ErrInput(core.CodeInvalidInput, "case id must not contain path separators").
			WithDetail("case_id", caseID)
	}
	return nil
}

// Verify that DirLoader implements core.InputLoader.
var _ core.InputLoader = (*DirLoader)(nil)
