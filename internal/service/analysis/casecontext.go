package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

const truncationMarker = " [truncated]"

// truncateText cuts s to at most limit runes. A non-positive limit disables
// truncation.
func truncateText(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit])) + truncationMarker
}

// BuildCaseContext renders the case header shared by every phase prompt.
func BuildCaseContext(in *core.AnalysisInput, maxDescriptionChars int) string {
	var b strings.Builder
	b.WriteString("## Case\n\n")

	disputeType := strings.TrimSpace(in.DisputeType)
	if disputeType == "" {
		disputeType = "unspecified"
	}
	fmt.Fprintf(&b, "- Dispute type: %s\n", disputeType)

	if in.ClaimedAmount != nil {
		fmt.Fprintf(&b, "- Claimed amount: %.2f\n", *in.ClaimedAmount)
	}
	if !in.HasRespondent() {
		b.WriteString("- The respondent has not submitted a statement.\n")
	}
	if len(in.Evidence) > 0 {
		fmt.Fprintf(&b, "- Evidence documents: %d\n", len(in.Evidence))
	}

	if desc := truncateText(in.Description, maxDescriptionChars); desc != "" {
		b.WriteString("\n### Description\n\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
