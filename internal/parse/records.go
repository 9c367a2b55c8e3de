package parse

import (
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// Default scores used when the service omits a value.
const (
	DefaultConfidence  = 0.5
	DefaultMateriality = 0.5
)

// Facts parses an extracted-fact list for a party. Facts without a
// statement are dropped; missing ids become "{party}_fact_{n}".
func Facts(raw string, party core.Party) ([]core.ExtractedFact, error) {
	records, err := DecodeArray(raw, "facts", "extractedFacts")
	if err != nil {
		return []core.ExtractedFact{}, err
	}

	facts := make([]core.ExtractedFact, 0, len(records))
	for _, r := range records {
		statement := r.String("statement", "fact", "text")
		if statement == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("%s_fact_%d", party, len(facts)+1)
		}
		facts = append(facts, core.ExtractedFact{
			ID:                 id,
			Statement:          statement,
			Category:           core.ParseFactCategory(r.String("category", "type")),
			Date:               normalizeDate(r.String("date")),
			Amount:             r.OptionalNumber("amount"),
			SupportingEvidence: r.Strings("supportingEvidence", "evidence", "supporting_evidence"),
			Confidence:         r.Score(DefaultConfidence, "confidence"),
			Context:            r.String("context"),
		})
	}
	return facts, nil
}

// Claims parses a claim list for a party. Claims without a description are
// dropped. An invalid or missing type is inferred from the description.
func Claims(raw string, party core.Party) ([]core.ParsedClaim, error) {
	records, err := DecodeArray(raw, "claims")
	if err != nil {
		return []core.ParsedClaim{}, err
	}

	claims := make([]core.ParsedClaim, 0, len(records))
	for _, r := range records {
		description := r.String("description", "claim")
		if description == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("%s_claim_%d", party, len(claims)+1)
		}
		claims = append(claims, core.ParsedClaim{
			ID:              id,
			Type:            ClaimType(r.String("type"), description),
			Description:     description,
			Amount:          r.OptionalNumber("amount"),
			Basis:           r.String("basis"),
			SupportingFacts: r.Strings("supportingFacts", "supporting_facts"),
		})
	}
	return claims, nil
}

// ClaimType returns the declared type when it is valid and otherwise infers
// one from the description.
func ClaimType(declared, description string) core.ClaimType {
	if core.ValidClaimType(declared) {
		return core.ParseClaimType(declared)
	}
	return core.InferClaimType(description)
}

// Comparison parses the disputed/undisputed fact split.
func Comparison(raw string) (core.ComparisonOutput, error) {
	obj, err := DecodeObject(raw)
	if err != nil {
		return core.EmptyComparison(), err
	}

	out := core.EmptyComparison()
	for _, r := range obj.Array("disputedFacts", "disputed", "disputed_facts") {
		topic := r.String("topic", "issue")
		if topic == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("disputed_%d", len(out.Disputed)+1)
		}
		out.Disputed = append(out.Disputed, core.DisputedFact{
			ID:                 id,
			Topic:              topic,
			ClaimantPosition:   r.String("claimantPosition", "claimant_position", "claimant"),
			RespondentPosition: r.String("respondentPosition", "respondent_position", "respondent"),
			RelevantEvidence:   r.Strings("relevantEvidence", "evidence"),
			Materiality:        r.Score(DefaultMateriality, "materiality"),
			Analysis:           r.String("analysis"),
		})
	}

	for _, r := range obj.Array("undisputedFacts", "undisputed", "undisputed_facts") {
		fact := r.String("fact", "statement")
		if fact == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("undisputed_%d", len(out.Undisputed)+1)
		}
		out.Undisputed = append(out.Undisputed, core.UndisputedFact{
			ID:                 id,
			Fact:               fact,
			AgreedBy:           parties(r.Strings("agreedBy", "agreed_by", "parties")),
			SupportingEvidence: r.Strings("supportingEvidence", "evidence"),
			Materiality:        r.Score(DefaultMateriality, "materiality"),
		})
	}
	return out, nil
}

// parties keeps recognised party names, defaulting to both parties.
func parties(names []string) []core.Party {
	seen := map[core.Party]bool{}
	var out []core.Party
	for _, n := range names {
		p := core.Party(strings.ToLower(strings.TrimSpace(n)))
		if (p == core.PartyClaimant || p == core.PartyRespondent) && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return core.Parties()
	}
	return out
}

// Timeline parses a list of timeline events. Events without text are
// dropped and missing dates become "unknown".
func Timeline(raw string) ([]core.TimelineEvent, error) {
	records, err := DecodeArray(raw, "timeline", "events")
	if err != nil {
		return []core.TimelineEvent{}, err
	}

	events := make([]core.TimelineEvent, 0, len(records))
	for _, r := range records {
		text := r.String("event", "description")
		if text == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("event_%d", len(events)+1)
		}
		date := normalizeDate(r.String("date"))
		if date == "" {
			date = core.UnknownDate
		}
		events = append(events, core.TimelineEvent{
			ID:         id,
			Date:       date,
			ParsedDate: EventDate(date),
			Event:      text,
			Source:     core.ParseEventSource(r.String("source")),
			SourceID:   r.String("sourceId", "source_id"),
			Disputed:   r.Bool("disputed"),
			Details:    r.String("details"),
		})
	}
	return events, nil
}

// ContradictionSet is the parsed contradiction response before scoring.
type ContradictionSet struct {
	Contradictions []core.Contradiction
	Summary        string
}

// Contradictions parses a contradiction list, with or without a summary
// wrapper. Contradictions without a topic are dropped.
func Contradictions(raw string) (ContradictionSet, error) {
	empty := ContradictionSet{Contradictions: []core.Contradiction{}}

	records, err := DecodeArray(raw, "contradictions")
	if err != nil {
		return empty, err
	}

	set := ContradictionSet{Contradictions: make([]core.Contradiction, 0, len(records))}
	if obj, objErr := DecodeObject(raw); objErr == nil {
		set.Summary = obj.String("summary")
	}

	for _, r := range records {
		topic := r.String("topic")
		if topic == "" {
			continue
		}
		id := r.String("id")
		if id == "" {
			id = fmt.Sprintf("contradiction_%d", len(set.Contradictions)+1)
		}
		set.Contradictions = append(set.Contradictions, core.Contradiction{
			ID:              id,
			Topic:           topic,
			ClaimantClaim:   r.String("claimantClaim", "claimant_claim", "claimant"),
			RespondentClaim: r.String("respondentClaim", "respondent_claim", "respondent"),
			Severity:        core.ParseSeverity(r.String("severity")),
			Analysis:        r.String("analysis"),
			RelatedFacts:    r.Strings("relatedFacts", "related_facts"),
			ImpactOnCase:    r.String("impactOnCase", "impact_on_case", "impact"),
		})
	}
	return set, nil
}

// PartyAssessment is a parsed credibility score. Overall is nil when the
// service did not provide one, so the caller can compute it.
type PartyAssessment struct {
	Score   core.PartyCredibilityScore
	Overall *float64
}

// CredibilityAssessment is the parsed credibility response.
type CredibilityAssessment struct {
	Claimant   PartyAssessment
	Respondent PartyAssessment
	Comparison string
}

// Credibility parses the credibility response for both parties.
func Credibility(raw string) (CredibilityAssessment, error) {
	obj, err := DecodeObject(raw)
	if err != nil {
		return CredibilityAssessment{
			Claimant:   PartyAssessment{Score: core.EmptyPartyScore("")},
			Respondent: PartyAssessment{Score: core.EmptyPartyScore("")},
		}, err
	}

	claimant := obj.Object("claimant", "claimantCredibility")
	respondent := obj.Object("respondent", "respondentCredibility")
	if claimant == nil && respondent == nil {
		return CredibilityAssessment{
			Claimant:   PartyAssessment{Score: core.EmptyPartyScore("")},
			Respondent: PartyAssessment{Score: core.EmptyPartyScore("")},
		}, core.ErrParse(core.CodeUnexpectedShape, "credibility response has no party scores")
	}

	return CredibilityAssessment{
		Claimant:   partyAssessment(claimant),
		Respondent: partyAssessment(respondent),
		Comparison: obj.String("comparison", "comparativeAnalysis"),
	}, nil
}

// Neutral factor value used when a factor is missing from the response.
const neutralFactor = 0.5

func partyAssessment(r Record) PartyAssessment {
	if r == nil {
		return PartyAssessment{Score: core.EmptyPartyScore("No assessment returned")}
	}

	factors := r.Object("factors")
	if factors == nil {
		factors = r
	}

	a := PartyAssessment{
		Score: core.PartyCredibilityScore{
			Factors: core.CredibilityFactors{
				EvidenceSupport:     factors.Score(neutralFactor, "evidenceSupport", "evidence_support"),
				InternalConsistency: factors.Score(neutralFactor, "internalConsistency", "internal_consistency"),
				ExternalConsistency: factors.Score(neutralFactor, "externalConsistency", "external_consistency"),
				Specificity:         factors.Score(neutralFactor, "specificity"),
				Plausibility:        factors.Score(neutralFactor, "plausibility"),
			},
			Reasoning:  r.String("reasoning"),
			Strengths:  nonNilStrings(r.Strings("strengths")),
			Weaknesses: nonNilStrings(r.Strings("weaknesses")),
		},
	}
	if v, ok := r["overall"]; ok && v != nil {
		if f, ok := core.ParseNumber(v); ok {
			overall := core.Clamp01(f)
			a.Overall = &overall
		}
	}
	return a
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func normalizeDate(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "n/a", core.UnknownDate:
		return ""
	default:
		return strings.TrimSpace(s)
	}
}
