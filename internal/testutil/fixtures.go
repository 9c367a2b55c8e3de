package testutil

import "github.com/hugo-lorenzo-mato/case-analyzer/internal/core"

// NewTestInput creates an AnalysisInput for a small contractor dispute with
// both statements and one evidence document.
// Use functional options to override specific fields.
func NewTestInput(opts ...func(*core.AnalysisInput)) *core.AnalysisInput {
	amount := 4500.0
	in := &core.AnalysisInput{
		CaseID:        "case-test",
		Description:   "Dispute over an unfinished kitchen renovation",
		DisputeType:   "contract",
		ClaimedAmount: &amount,
		ClaimantStatement: "On 3 March 2024 I paid the contractor a deposit of $4,500 to renovate my kitchen. " +
			"Work was due to finish by 30 April 2024 but the contractor stopped attending the site on 10 April 2024 " +
			"and has not returned. I want a refund of the deposit.",
		RespondentStatement: "The deposit was received on 3 March 2024. Work paused on 10 April 2024 because the claimant " +
			"changed the cabinet order twice and refused to pay for the extra materials. The delay is not our fault.",
		Evidence: []core.EvidenceSummary{
			{
				ID:           "ev-1",
				Filename:     "bank-transfer.pdf",
				DocumentType: "receipt",
				Summary:      "Bank transfer of $4,500 to the contractor",
				ExtractedEntities: []core.ExtractedEntity{
					{Type: "date", Value: "2024-03-03", Context: "Deposit transfer"},
					{Type: "amount", Value: "4500"},
				},
				SubmittedBy: core.PartyClaimant,
			},
		},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// WithoutRespondent clears the respondent statement and claims.
func WithoutRespondent(in *core.AnalysisInput) {
	in.RespondentStatement = ""
	in.RespondentClaims = nil
}
