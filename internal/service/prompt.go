package service

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

//go:embed prompts/*.md.tmpl
var promptsFS embed.FS

// Prompt template ids, one per reasoning call kind.
const (
	PromptExtractFacts         = "extract-facts"
	PromptExtractClaims        = "extract-claims"
	PromptCompareFacts         = "compare-facts"
	PromptBuildTimeline        = "build-timeline"
	PromptDetectContradictions = "detect-contradictions"
	PromptScoreCredibility     = "score-credibility"
)

// PromptMeta describes an embedded prompt template.
type PromptMeta struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Phase  core.Phase `json:"phase"`
	Status string     `json:"status"`
	Sha256 string     `json:"sha256"`
}

// Prompt is a rendered system and user prompt pair.
type Prompt struct {
	ID     string
	System string
	User   string
	Tier   core.QualityTier
}

// Request converts the prompt into a reasoning request.
func (p Prompt) Request() core.GenerateRequest {
	return core.GenerateRequest{
		SystemPrompt: p.System,
		UserPrompt:   p.User,
		Tier:         p.Tier,
	}
}

type promptFrontmatter struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Phase  string `yaml:"phase"`
	Status string `yaml:"status"`
	System string `yaml:"system"`
}

type promptTemplate struct {
	meta   PromptMeta
	system string
	user   *template.Template
}

// PromptRenderer renders prompts from templates. Each template carries YAML
// frontmatter with its metadata and system prompt; the body is the user
// prompt template.
type PromptRenderer struct {
	templates map[string]*promptTemplate
	mu        sync.RWMutex
}

// NewPromptRenderer creates a new prompt renderer.
func NewPromptRenderer() (*PromptRenderer, error) {
	r := &PromptRenderer{
		templates: make(map[string]*promptTemplate),
	}

	if err := r.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	return r, nil
}

// loadTemplates loads all templates from the embedded filesystem.
func (r *PromptRenderer) loadTemplates() error {
	return fs.WalkDir(promptsFS, "prompts", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".md.tmpl") {
			return nil
		}

		content, err := promptsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		pt, err := parsePromptTemplate(promptIDFromPath(path), string(content))
		if err != nil {
			return err
		}
		r.templates[pt.meta.ID] = pt
		return nil
	})
}

func parsePromptTemplate(id, content string) (*promptTemplate, error) {
	fmRaw, body, ok := splitFrontmatter(content)
	if !ok {
		return nil, fmt.Errorf("missing frontmatter (id=%s)", id)
	}

	var fm promptFrontmatter
	if err := yaml.Unmarshal([]byte(fmRaw), &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter (id=%s): %w", id, err)
	}
	phase, err := validatePromptFrontmatter(fm, id)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter (id=%s): %w", id, err)
	}

	tmpl, err := template.New(id).Funcs(templateFuncs()).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", id, err)
	}

	return &promptTemplate{
		meta: PromptMeta{
			ID:     fm.ID,
			Title:  fm.Title,
			Phase:  phase,
			Status: fm.Status,
			Sha256: hashSha256(fm.System + "\n" + body),
		},
		system: strings.TrimSpace(fm.System),
		user:   tmpl,
	}, nil
}

func splitFrontmatter(raw string) (frontmatter, body string, ok bool) {
	// Normalize Windows line endings for consistent parsing/hashing.
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return "", s, false
	}

	rest := s[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return "", s, false
	}

	frontmatter = rest[:end]
	body = rest[end+len("\n---\n"):]
	body = strings.TrimLeft(body, "\n")
	return frontmatter, body, true
}

func hashSha256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func validatePromptFrontmatter(fm promptFrontmatter, idFromFilename string) (core.Phase, error) {
	if strings.TrimSpace(fm.ID) == "" {
		return "", fmt.Errorf("frontmatter: id is required")
	}
	if fm.ID != idFromFilename {
		return "", fmt.Errorf("frontmatter: id %q does not match filename %q", fm.ID, idFromFilename)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return "", fmt.Errorf("frontmatter: title is required (id=%s)", fm.ID)
	}
	phase, err := core.ParsePhase(fm.Phase)
	if err != nil {
		return "", fmt.Errorf("frontmatter: %w (id=%s)", err, fm.ID)
	}
	switch fm.Status {
	case "active", "deprecated":
	default:
		return "", fmt.Errorf("frontmatter: invalid status %q (id=%s)", fm.Status, fm.ID)
	}
	if strings.TrimSpace(fm.System) == "" {
		return "", fmt.Errorf("frontmatter: system is required (id=%s)", fm.ID)
	}
	return phase, nil
}

func promptIDFromPath(path string) string {
	name := strings.TrimPrefix(path, "prompts/")
	name = strings.TrimSuffix(name, ".md.tmpl")
	return name
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":      strings.Join,
		"indent":    indent,
		"trimSpace": strings.TrimSpace,
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"add":       func(a, b int) int { return a + b },
		"amount":    formatAmount,
	}
}

func indent(spaces int, s string) string {
	pad := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// FactExtractionParams contains parameters for the fact extraction template.
type FactExtractionParams struct {
	CaseContext string
	Party       core.Party
	Statement   string
}

// RenderFactExtraction renders the fact extraction prompt.
func (r *PromptRenderer) RenderFactExtraction(params FactExtractionParams) (Prompt, error) {
	return r.Render(PromptExtractFacts, params)
}

// ClaimInferenceParams contains parameters for the claim inference template.
type ClaimInferenceParams struct {
	CaseContext string
	Party       core.Party
	Statement   string
	Facts       []core.ExtractedFact
}

// RenderClaimInference renders the claim inference prompt.
func (r *PromptRenderer) RenderClaimInference(params ClaimInferenceParams) (Prompt, error) {
	return r.Render(PromptExtractClaims, params)
}

// FactComparisonParams contains parameters for the fact comparison template.
type FactComparisonParams struct {
	CaseContext     string
	ClaimantFacts   []core.ExtractedFact
	RespondentFacts []core.ExtractedFact
}

// RenderFactComparison renders the fact comparison prompt.
func (r *PromptRenderer) RenderFactComparison(params FactComparisonParams) (Prompt, error) {
	return r.Render(PromptCompareFacts, params)
}

// TimelineParams contains parameters for the timeline template.
type TimelineParams struct {
	CaseContext string
	Facts       []core.ExtractedFact
	Evidence    []core.EvidenceSummary
}

// RenderTimeline renders the timeline reconstruction prompt.
func (r *PromptRenderer) RenderTimeline(params TimelineParams) (Prompt, error) {
	return r.Render(PromptBuildTimeline, params)
}

// ContradictionParams contains parameters for the contradiction template.
type ContradictionParams struct {
	CaseContext         string
	ClaimantStatement   string
	RespondentStatement string
	Disputed            []core.DisputedFact
}

// RenderContradictions renders the contradiction detection prompt.
func (r *PromptRenderer) RenderContradictions(params ContradictionParams) (Prompt, error) {
	return r.Render(PromptDetectContradictions, params)
}

// CredibilityParams contains parameters for the credibility template.
type CredibilityParams struct {
	CaseContext         string
	ClaimantStatement   string
	RespondentStatement string
	ClaimantFacts       []core.ExtractedFact
	RespondentFacts     []core.ExtractedFact
	Contradictions      []core.Contradiction
	Evidence            []core.EvidenceSummary
}

// RenderCredibility renders the credibility assessment prompt.
func (r *PromptRenderer) RenderCredibility(params CredibilityParams) (Prompt, error) {
	return r.Render(PromptScoreCredibility, params)
}

// Render renders a template by id with the given data.
func (r *PromptRenderer) Render(id string, data interface{}) (Prompt, error) {
	r.mu.RLock()
	pt, ok := r.templates[id]
	r.mu.RUnlock()

	if !ok {
		return Prompt{}, fmt.Errorf("template %q not found", id)
	}

	var buf bytes.Buffer
	if err := pt.user.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("executing template %s: %w", id, err)
	}

	return Prompt{
		ID:     id,
		System: pt.system,
		User:   buf.String(),
		Tier:   pt.meta.Phase.Tier(),
	}, nil
}

// ListTemplates returns template metadata in phase order.
func (r *PromptRenderer) ListTemplates() []PromptMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]PromptMeta, 0, len(r.templates))
	for _, pt := range r.templates {
		metas = append(metas, pt.meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		oi, oj := core.PhaseOrder(metas[i].Phase), core.PhaseOrder(metas[j].Phase)
		if oi != oj {
			return oi < oj
		}
		return metas[i].ID < metas[j].ID
	})
	return metas
}

// HasTemplate checks if a template exists.
func (r *PromptRenderer) HasTemplate(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[id]
	return ok
}
