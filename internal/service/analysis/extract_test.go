package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

func ptr(f float64) *float64 { return &f }

func TestKeywords(t *testing.T) {
	got := keywords("The contractor, with THEIR crew, stopped work on the kitchen; the kitchen is unfinished.")
	want := map[string]bool{
		"contractor": true,
		"crew":       true,
		"stopped":    true,
		"work":       true,
		"kitchen":    true,
		"unfinished": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keywords() mismatch (-want +got):\n%s", diff)
	}
}

func TestClaimsFromItems(t *testing.T) {
	facts := []core.ExtractedFact{
		{ID: "claimant_fact_1", Statement: "I paid a deposit", Amount: ptr(4500)},
		{ID: "claimant_fact_2", Statement: "The kitchen cabinets arrived damaged and scratched"},
		{ID: "claimant_fact_3", Statement: "The contractor never returned"},
	}
	items := []core.ClaimItem{
		{Description: "Refund of the deposit", Amount: ptr(4500.004)},
		{Description: "   "},
		{Description: "Replace the damaged kitchen cabinets", Type: "damages", Basis: "  Warranty  "},
		{Description: "Something unrelated", Type: "made-up"},
	}

	claims := ClaimsFromItems(core.PartyClaimant, items, facts)

	want := []core.ParsedClaim{
		{ID: "claimant_claim_1", Type: core.ClaimRefund, Description: "Refund of the deposit", Amount: ptr(4500.004), SupportingFacts: []string{"claimant_fact_1"}},
		{ID: "claimant_claim_2", Type: core.ClaimDamages, Description: "Replace the damaged kitchen cabinets", Basis: "Warranty", SupportingFacts: []string{"claimant_fact_2"}},
		{ID: "claimant_claim_3", Type: core.ClaimOther, Description: "Something unrelated"},
	}
	if diff := cmp.Diff(want, claims); diff != "" {
		t.Errorf("ClaimsFromItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestAmountsMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want bool
	}{
		{"both nil", nil, nil, false},
		{"one nil", ptr(10), nil, false},
		{"equal", ptr(10), ptr(10), true},
		{"within tolerance", ptr(10), ptr(10.009), true},
		{"outside tolerance", ptr(10), ptr(10.02), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := amountsMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("amountsMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("  short  ", 10); got != "short" {
		t.Errorf("truncateText() = %q, want %q", got, "short")
	}
	if got := truncateText("abcdefghij", 0); got != "abcdefghij" {
		t.Errorf("zero limit should not truncate, got %q", got)
	}
	if got := truncateText("héllo wörld", 5); got != "héllo [truncated]" {
		t.Errorf("truncateText() = %q", got)
	}
}

func TestStatementLimits_Trivial(t *testing.T) {
	l := StatementLimits{MinChars: 5}
	if !l.trivial("  abc  ") {
		t.Error("three characters should be trivial")
	}
	if !l.trivial("abcde") {
		t.Error("a statement at the minimum should be trivial")
	}
	if l.trivial("abcdef") {
		t.Error("six characters should not be trivial")
	}
}
