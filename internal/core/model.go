package core

import (
	"strings"
	"time"
)

// ClaimItem is a structured, party-provided claim line (itemized damages).
type ClaimItem struct {
	Description string   `json:"description" yaml:"description"`
	Amount      *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Basis       string   `json:"basis,omitempty" yaml:"basis,omitempty"`
}

// ExtractedEntity is a typed entity pulled out of an evidence document.
type ExtractedEntity struct {
	Type    string `json:"type" yaml:"type"`
	Value   string `json:"value" yaml:"value"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// EvidenceSummary describes one piece of submitted evidence.
type EvidenceSummary struct {
	ID                string            `json:"id" yaml:"id"`
	Filename          string            `json:"filename" yaml:"filename"`
	DocumentType      string            `json:"documentType,omitempty" yaml:"documentType,omitempty"`
	Summary           string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	KeyPoints         []string          `json:"keyPoints,omitempty" yaml:"keyPoints,omitempty"`
	ExtractedEntities []ExtractedEntity `json:"extractedEntities,omitempty" yaml:"extractedEntities,omitempty"`
	SubmittedBy       Party             `json:"submittedBy,omitempty" yaml:"submittedBy,omitempty"`
}

// AnalysisInput is the immutable case input for one run.
type AnalysisInput struct {
	CaseID              string            `json:"caseId" yaml:"caseId"`
	Description         string            `json:"description" yaml:"description"`
	DisputeType         string            `json:"disputeType" yaml:"disputeType"`
	ClaimedAmount       *float64          `json:"claimedAmount,omitempty" yaml:"claimedAmount,omitempty"`
	ClaimantStatement   string            `json:"claimantStatement" yaml:"claimantStatement"`
	ClaimantClaims      []ClaimItem       `json:"claimantClaims,omitempty" yaml:"claimantClaims,omitempty"`
	RespondentStatement string            `json:"respondentStatement,omitempty" yaml:"respondentStatement,omitempty"`
	RespondentClaims    []ClaimItem       `json:"respondentClaims,omitempty" yaml:"respondentClaims,omitempty"`
	Evidence            []EvidenceSummary `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Validate checks the hard input contract: a case id and a claimant statement.
func (in *AnalysisInput) Validate() error {
	if strings.TrimSpace(in.CaseID) == "" {
		return ErrInput(CodeMissingCaseID, "case id is required")
	}
	if strings.TrimSpace(in.ClaimantStatement) == "" {
		return ErrInput(CodeMissingStatement, "claimant statement is required").
			WithDetail("case_id", in.CaseID)
	}
	return nil
}

// HasRespondent reports whether the respondent submitted a statement.
func (in *AnalysisInput) HasRespondent() bool {
	return strings.TrimSpace(in.RespondentStatement) != ""
}

// Statement returns the statement text of a party.
func (in *AnalysisInput) Statement(p Party) string {
	if p == PartyRespondent {
		return in.RespondentStatement
	}
	return in.ClaimantStatement
}

// ClaimItems returns the structured claim items of a party.
func (in *AnalysisInput) ClaimItems(p Party) []ClaimItem {
	if p == PartyRespondent {
		return in.RespondentClaims
	}
	return in.ClaimantClaims
}

// ExtractedFact is one fact pulled from a party's statement.
type ExtractedFact struct {
	ID                 string       `json:"id"`
	Statement          string       `json:"statement"`
	Category           FactCategory `json:"category"`
	Date               string       `json:"date,omitempty"`
	Amount             *float64     `json:"amount,omitempty"`
	SupportingEvidence []string     `json:"supportingEvidence,omitempty"`
	Confidence         float64      `json:"confidence"`
	Context            string       `json:"context,omitempty"`
}

// ParsedClaim is a claim attributed to a party.
type ParsedClaim struct {
	ID              string    `json:"id"`
	Type            ClaimType `json:"type"`
	Description     string    `json:"description"`
	Amount          *float64  `json:"amount,omitempty"`
	Basis           string    `json:"basis,omitempty"`
	SupportingFacts []string  `json:"supportingFacts,omitempty"`
}

// DisputedFact is a topic on which the parties disagree.
type DisputedFact struct {
	ID                 string   `json:"id"`
	Topic              string   `json:"topic"`
	ClaimantPosition   string   `json:"claimantPosition"`
	RespondentPosition string   `json:"respondentPosition"`
	RelevantEvidence   []string `json:"relevantEvidence,omitempty"`
	Materiality        float64  `json:"materiality"`
	Analysis           string   `json:"analysis,omitempty"`
}

// UndisputedFact is a fact both sides accept (or one side asserts and the
// other does not contest).
type UndisputedFact struct {
	ID                 string   `json:"id"`
	Fact               string   `json:"fact"`
	AgreedBy           []Party  `json:"agreedBy"`
	SupportingEvidence []string `json:"supportingEvidence,omitempty"`
	Materiality        float64  `json:"materiality"`
}

// TimelineEvent is one entry of the reconstructed chronology.
type TimelineEvent struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"`
	ParsedDate *time.Time  `json:"parsedDate,omitempty"`
	Event      string      `json:"event"`
	Source     EventSource `json:"source"`
	SourceID   string      `json:"sourceId,omitempty"`
	Disputed   bool        `json:"disputed"`
	Details    string      `json:"details,omitempty"`
}

// UnknownDate is the date recorded for events the sources could not date.
const UnknownDate = "unknown"

// Contradiction is a pair of incompatible claims between the parties.
type Contradiction struct {
	ID              string   `json:"id"`
	Topic           string   `json:"topic"`
	ClaimantClaim   string   `json:"claimantClaim"`
	RespondentClaim string   `json:"respondentClaim"`
	Severity        Severity `json:"severity"`
	Analysis        string   `json:"analysis"`
	RelatedFacts    []string `json:"relatedFacts,omitempty"`
	ImpactOnCase    string   `json:"impactOnCase,omitempty"`
}

// CredibilityFactors are the five sub-scores combined into an overall score.
type CredibilityFactors struct {
	EvidenceSupport     float64 `json:"evidenceSupport"`
	InternalConsistency float64 `json:"internalConsistency"`
	ExternalConsistency float64 `json:"externalConsistency"`
	Specificity         float64 `json:"specificity"`
	Plausibility        float64 `json:"plausibility"`
}

// Clamp forces every factor into [0,1].
func (f CredibilityFactors) Clamp() CredibilityFactors {
	return CredibilityFactors{
		EvidenceSupport:     Clamp01(f.EvidenceSupport),
		InternalConsistency: Clamp01(f.InternalConsistency),
		ExternalConsistency: Clamp01(f.ExternalConsistency),
		Specificity:         Clamp01(f.Specificity),
		Plausibility:        Clamp01(f.Plausibility),
	}
}

// PartyCredibilityScore is the credibility assessment of one party.
type PartyCredibilityScore struct {
	Overall    float64            `json:"overall"`
	Factors    CredibilityFactors `json:"factors"`
	Reasoning  string             `json:"reasoning"`
	Strengths  []string           `json:"strengths"`
	Weaknesses []string           `json:"weaknesses"`
}
