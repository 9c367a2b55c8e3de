package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// sanitizeFilename removes or replaces characters unsuitable for filenames
func sanitizeFilename(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		} else if r == ' ' || r == '/' || r == ':' {
			result.WriteRune('-')
		}
	}
	name := strings.Trim(strings.ToLower(result.String()), ".")
	if name == "" {
		return "case"
	}
	return name
}

// formatDuration formats a duration in a human-readable way
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// escapeCell keeps table cells on one line.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}

// BriefFrontmatter returns the frontmatter of a case brief.
func BriefFrontmatter(r *core.AnalysisResult, generatedAt time.Time) *Frontmatter {
	fm := NewFrontmatter()
	fm.Set("case_id", r.CaseID)
	fm.Set("job_id", r.JobID)
	fm.Set("status", string(r.Status))
	fm.Set("generated_at", generatedAt)
	fm.Set("tokens_used", r.TokensUsed)
	fm.Set("estimated_cost_usd", r.EstimatedCost)
	degraded := make([]string, 0)
	for _, p := range r.DegradedPhases() {
		degraded = append(degraded, p.String())
	}
	fm.Set("degraded_phases", degraded)
	return fm
}

// RenderBrief renders the analysis result as a Markdown case brief.
func RenderBrief(r *core.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Case Brief: %s\n\n", r.CaseID))
	sb.WriteString(fmt.Sprintf("**Status**: %s", r.Status))
	if r.Error != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", r.Error))
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Processing time | %s |\n", formatDuration(r.ProcessingTimeMs)))
	sb.WriteString(fmt.Sprintf("| Tokens used | %d |\n", r.TokensUsed))
	sb.WriteString(fmt.Sprintf("| Estimated cost | $%.4f |\n", r.EstimatedCost))
	sb.WriteString(fmt.Sprintf("| Contradiction score | %.2f |\n", r.ContradictionScore))

	writeDiagnostics(&sb, r.Diagnostics)
	writeFacts(&sb, "Claimant Facts", r.ClaimantFacts)
	writeFacts(&sb, "Respondent Facts", r.RespondentFacts)
	writeClaims(&sb, r)
	writeComparison(&sb, r)
	writeTimeline(&sb, r.Timeline)
	writeContradictions(&sb, r)
	writeCredibility(&sb, r.Credibility)

	return sb.String()
}

func writeDiagnostics(sb *strings.Builder, diags []core.PhaseDiagnostic) {
	var notes []core.PhaseDiagnostic
	for _, d := range diags {
		if !d.Succeeded || d.Skipped {
			notes = append(notes, d)
		}
	}
	if len(notes) == 0 {
		return
	}
	sb.WriteString("\n## Analysis Notes\n\n")
	for _, d := range notes {
		state := "skipped"
		if !d.Succeeded {
			state = "degraded"
		}
		sb.WriteString(fmt.Sprintf("- **%s** %s", d.Phase, state))
		if d.Message != "" {
			sb.WriteString(": " + d.Message)
		}
		sb.WriteString("\n")
	}
}

func writeFacts(sb *strings.Builder, title string, facts []core.ExtractedFact) {
	sb.WriteString(fmt.Sprintf("\n## %s\n\n", title))
	if len(facts) == 0 {
		sb.WriteString("_None extracted._\n")
		return
	}
	sb.WriteString("| ID | Category | Date | Statement | Confidence |\n")
	sb.WriteString("|----|----------|------|-----------|------------|\n")
	for _, f := range facts {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			f.ID, f.Category, escapeCell(f.Date), escapeCell(f.Statement), percent(f.Confidence)))
	}
}

func writeClaims(sb *strings.Builder, r *core.AnalysisResult) {
	claims := make([]core.ParsedClaim, 0, len(r.ClaimantClaims)+len(r.RespondentClaims))
	claims = append(claims, r.ClaimantClaims...)
	claims = append(claims, r.RespondentClaims...)
	if len(claims) == 0 {
		return
	}
	sb.WriteString("\n## Claims\n\n")
	for _, c := range claims {
		sb.WriteString(fmt.Sprintf("- **%s** (%s) %s", c.ID, c.Type, c.Description))
		if c.Amount != nil {
			sb.WriteString(fmt.Sprintf(", amount %.2f", *c.Amount))
		}
		if len(c.SupportingFacts) > 0 {
			sb.WriteString(fmt.Sprintf(" [facts: %s]", strings.Join(c.SupportingFacts, ", ")))
		}
		sb.WriteString("\n")
	}
}

func writeComparison(sb *strings.Builder, r *core.AnalysisResult) {
	sb.WriteString("\n## Disputed Facts\n\n")
	if len(r.DisputedFacts) == 0 {
		sb.WriteString("_No disputed facts._\n")
	}
	for _, d := range r.DisputedFacts {
		sb.WriteString(fmt.Sprintf("### %s (materiality %s)\n\n", d.Topic, percent(d.Materiality)))
		sb.WriteString(fmt.Sprintf("- **Claimant**: %s\n", d.ClaimantPosition))
		sb.WriteString(fmt.Sprintf("- **Respondent**: %s\n", d.RespondentPosition))
		if d.Analysis != "" {
			sb.WriteString(fmt.Sprintf("\n%s\n", d.Analysis))
		}
		sb.WriteString("\n")
	}

	if len(r.UndisputedFacts) > 0 {
		sb.WriteString("\n## Undisputed Facts\n\n")
		for _, u := range r.UndisputedFacts {
			agreed := make([]string, 0, len(u.AgreedBy))
			for _, p := range u.AgreedBy {
				agreed = append(agreed, string(p))
			}
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", u.Fact, strings.Join(agreed, ", ")))
		}
	}
}

func writeTimeline(sb *strings.Builder, events []core.TimelineEvent) {
	sb.WriteString("\n## Timeline\n\n")
	if len(events) == 0 {
		sb.WriteString("_No dated events._\n")
		return
	}
	sb.WriteString("| Date | Event | Source | Disputed |\n")
	sb.WriteString("|------|-------|--------|----------|\n")
	for _, e := range events {
		disputed := ""
		if e.Disputed {
			disputed = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", escapeCell(e.Date), escapeCell(e.Event), e.Source, disputed))
	}
}

func writeContradictions(sb *strings.Builder, r *core.AnalysisResult) {
	sb.WriteString("\n## Contradictions\n\n")
	if r.ContradictionReport != "" {
		sb.WriteString(r.ContradictionReport + "\n\n")
	}
	for _, c := range r.Contradictions {
		sb.WriteString(fmt.Sprintf("### [%s] %s\n\n", strings.ToUpper(string(c.Severity)), c.Topic))
		sb.WriteString(fmt.Sprintf("- **Claimant**: %s\n", c.ClaimantClaim))
		sb.WriteString(fmt.Sprintf("- **Respondent**: %s\n", c.RespondentClaim))
		if c.Analysis != "" {
			sb.WriteString(fmt.Sprintf("\n%s\n", c.Analysis))
		}
		sb.WriteString("\n")
	}
}

func writeCredibility(sb *strings.Builder, c core.CredibilityScores) {
	sb.WriteString("\n## Credibility\n\n")
	sb.WriteString("| Factor | Claimant | Respondent |\n")
	sb.WriteString("|--------|----------|------------|\n")
	rows := []struct {
		name string
		a, b float64
	}{
		{"Evidence support", c.Claimant.Factors.EvidenceSupport, c.Respondent.Factors.EvidenceSupport},
		{"Internal consistency", c.Claimant.Factors.InternalConsistency, c.Respondent.Factors.InternalConsistency},
		{"External consistency", c.Claimant.Factors.ExternalConsistency, c.Respondent.Factors.ExternalConsistency},
		{"Specificity", c.Claimant.Factors.Specificity, c.Respondent.Factors.Specificity},
		{"Plausibility", c.Claimant.Factors.Plausibility, c.Respondent.Factors.Plausibility},
		{"**Overall**", c.Claimant.Overall, c.Respondent.Overall},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.name, percent(row.a), percent(row.b)))
	}

	for _, party := range []struct {
		name  string
		score core.PartyCredibilityScore
	}{{"Claimant", c.Claimant}, {"Respondent", c.Respondent}} {
		if party.score.Reasoning == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n**%s**: %s\n", party.name, party.score.Reasoning))
	}
	if c.Comparison != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", c.Comparison))
	}
}

// RenderJSON renders the analysis result as indented JSON.
func RenderJSON(r *core.AnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding analysis result: %w", err)
	}
	return append(data, '\n'), nil
}
