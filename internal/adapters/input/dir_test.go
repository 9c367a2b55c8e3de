package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/testutil"
)

func writeCase(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDirLoader_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "case-1.yaml", `
description: Sofa delivered damaged
disputeType: consumer
claimedAmount: 850
claimantStatement: |
  I ordered a sofa on 3 March 2024. It arrived torn.
claimantClaims:
  - description: Full refund
    amount: 850
    type: refund
respondentStatement: The sofa left our warehouse intact.
evidence:
  - id: ev1
    filename: photo.jpg
    summary: Photo of a torn sofa
    submittedBy: claimant
`)

	in, err := NewDirLoader(dir).Load(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if in.CaseID != "case-1" {
		t.Errorf("CaseID = %q", in.CaseID)
	}
	if in.ClaimedAmount == nil || *in.ClaimedAmount != 850 {
		t.Errorf("ClaimedAmount = %v", in.ClaimedAmount)
	}
	if len(in.ClaimantClaims) != 1 || in.ClaimantClaims[0].Type != "refund" {
		t.Errorf("ClaimantClaims = %+v", in.ClaimantClaims)
	}
	if !in.HasRespondent() {
		t.Error("respondent statement not loaded")
	}
	if len(in.Evidence) != 1 || in.Evidence[0].SubmittedBy != core.PartyClaimant {
		t.Errorf("Evidence = %+v", in.Evidence)
	}
}

func TestDirLoader_LoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "case-2.json", `{"caseId": "case-2", "claimantStatement": "The builder never finished the roof."}`)

	in, err := NewDirLoader(dir).Load(context.Background(), "case-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if in.HasRespondent() {
		t.Error("no respondent expected")
	}
}

func TestDirLoader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	amount := 1200.0
	want := &core.AnalysisInput{
		CaseID:            "case-3",
		DisputeType:       "construction",
		ClaimedAmount:     &amount,
		ClaimantStatement: "The roof leaks after the repair.",
		ClaimantClaims:    []core.ClaimItem{{Description: "Cost of a second repair", Amount: &amount, Type: "damages"}},
	}
	testutil.WriteCaseFile(t, dir, want)

	got, err := NewDirLoader(dir).Load(context.Background(), "case-3")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.ClaimantStatement, want.ClaimantStatement)
	testutil.AssertEqual(t, *got.ClaimedAmount, amount)
	testutil.AssertLen(t, got.ClaimantClaims, 1)

	want.ClaimantStatement = "  "
	testutil.WriteCaseFile(t, dir, want)
	_, err = NewDirLoader(dir).Load(context.Background(), "case-3")
	testutil.AssertCategory(t, err, core.ErrCatInput)
}

func TestDirLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "empty.yaml", "description: nothing here\n")
	writeCase(t, dir, "broken.yaml", "claimantStatement: [unclosed\n")
	writeCase(t, dir, "other.json", `{"caseId": "someone-else", "claimantStatement": "text"}`)
	loader := NewDirLoader(dir)
	ctx := context.Background()

	tests := []struct {
		caseID string
		code   string
	}{
		{"missing", core.CodeNoInput},
		{"empty", core.CodeNoInput},
		{"broken", core.CodeInvalidInput},
		{"other", core.CodeInvalidInput},
		{"../etc", core.CodeInvalidInput},
		{"", core.CodeMissingCaseID},
	}
	for _, tt := range tests {
		t.Run(tt.caseID, func(t *testing.T) {
			_, err := loader.Load(ctx, tt.caseID)
			de, ok := err.(*core.DomainError)
			if !ok {
				t.Fatalf("expected *core.DomainError, got %T (%v)", err, err)
			}
			if de.Category != core.ErrCatInput || de.Code != tt.code {
				t.Errorf("got %s/%s, want input/%s", de.Category, de.Code, tt.code)
			}
		})
	}
}

func TestDirLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "b.yaml", "")
	writeCase(t, dir, "a.json", "")
	writeCase(t, dir, "a.yml", "")
	writeCase(t, dir, "notes.txt", "")
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o750); err != nil {
		t.Fatal(err)
	}

	ids, err := NewDirLoader(dir).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List() = %v", ids)
	}

	ids, err = NewDirLoader(filepath.Join(dir, "absent")).List()
	if err != nil || len(ids) != 0 {
		t.Errorf("missing dir: %v, %v", ids, err)
	}
}
