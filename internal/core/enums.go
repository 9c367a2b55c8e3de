package core

import (
	"math"
	"strconv"
	"strings"
)

// Party identifies a side of the dispute.
type Party string

const (
	PartyClaimant   Party = "claimant"
	PartyRespondent Party = "respondent"
)

// Parties returns both parties in canonical order.
func Parties() []Party {
	return []Party{PartyClaimant, PartyRespondent}
}

// FactCategory classifies an extracted fact.
type FactCategory string

const (
	FactEvent      FactCategory = "event"
	FactClaim      FactCategory = "claim"
	FactAdmission  FactCategory = "admission"
	FactDenial     FactCategory = "denial"
	FactAllegation FactCategory = "allegation"
)

// ParseFactCategory maps free text onto the closed category set.
// Unrecognized values become FactClaim.
func ParseFactCategory(s string) FactCategory {
	switch FactCategory(normalizeEnum(s)) {
	case FactEvent:
		return FactEvent
	case FactAdmission:
		return FactAdmission
	case FactDenial:
		return FactDenial
	case FactAllegation:
		return FactAllegation
	default:
		return FactClaim
	}
}

// ClaimType classifies a parsed claim.
type ClaimType string

const (
	ClaimDamages      ClaimType = "damages"
	ClaimBreach       ClaimType = "breach"
	ClaimPerformance  ClaimType = "performance"
	ClaimRefund       ClaimType = "refund"
	ClaimCompensation ClaimType = "compensation"
	ClaimOther        ClaimType = "other"
)

// ParseClaimType maps free text onto the closed claim type set.
// Unrecognized values become ClaimOther.
func ParseClaimType(s string) ClaimType {
	ct, _ := lookupClaimType(s)
	return ct
}

func lookupClaimType(s string) (ClaimType, bool) {
	switch ClaimType(normalizeEnum(s)) {
	case ClaimDamages:
		return ClaimDamages, true
	case ClaimBreach:
		return ClaimBreach, true
	case ClaimPerformance:
		return ClaimPerformance, true
	case ClaimRefund:
		return ClaimRefund, true
	case ClaimCompensation:
		return ClaimCompensation, true
	case ClaimOther:
		return ClaimOther, true
	default:
		return ClaimOther, false
	}
}

// ValidClaimType reports whether s names a claim type exactly.
func ValidClaimType(s string) bool {
	_, ok := lookupClaimType(s)
	return ok
}

// Severity grades a contradiction.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// ParseSeverity maps free text onto the closed severity set.
// Unrecognized values become SeverityModerate.
func ParseSeverity(s string) Severity {
	switch Severity(normalizeEnum(s)) {
	case SeverityMinor:
		return SeverityMinor
	case SeverityMajor:
		return SeverityMajor
	default:
		return SeverityModerate
	}
}

// Weight returns the contribution of a contradiction of this severity to
// the contradiction score.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityMajor:
		return 1.0
	case SeverityMinor:
		return 0.2
	default:
		return 0.5
	}
}

// EventSource records where a timeline event came from.
type EventSource string

const (
	SourceClaimant   EventSource = "claimant"
	SourceRespondent EventSource = "respondent"
	SourceEvidence   EventSource = "evidence"
)

// ParseEventSource maps free text onto the closed source set.
// Unrecognized values become SourceEvidence.
func ParseEventSource(s string) EventSource {
	switch EventSource(normalizeEnum(s)) {
	case SourceClaimant:
		return SourceClaimant
	case SourceRespondent:
		return SourceRespondent
	default:
		return SourceEvidence
	}
}

// QualityTier selects the reasoning service model class.
type QualityTier string

const (
	// TierFast is the cheap tier used for extraction and timeline work.
	TierFast QualityTier = "fast"
	// TierReasoning is the slower tier used for comparative judgment.
	TierReasoning QualityTier = "reasoning"
)

// ParseQualityTier maps free text onto a tier, defaulting to TierFast.
func ParseQualityTier(s string) QualityTier {
	if QualityTier(normalizeEnum(s)) == TierReasoning {
		return TierReasoning
	}
	return TierFast
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Clamp01 forces v into [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ParseScore converts an untyped JSON value into a [0,1] score.
// Missing or unparseable values yield def, which is clamped as well.
// Values in (1,100] written as percentages are not rescaled; they clamp to 1.
func ParseScore(v interface{}, def float64) float64 {
	f, ok := ParseNumber(v)
	if !ok {
		return Clamp01(def)
	}
	return Clamp01(f)
}

// ParseNumber converts an untyped JSON value into a float64. It accepts
// numbers and numeric strings, ignoring currency symbols and thousands
// separators.
func ParseNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.Map(func(r rune) rune {
			switch {
			case r >= '0' && r <= '9', r == '.', r == '-':
				return r
			default:
				return -1
			}
		}, n)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// claimTypeKeywords is checked in order; the first type with a matching
// keyword wins.
var claimTypeKeywords = []struct {
	claimType ClaimType
	keywords  []string
}{
	{ClaimRefund, []string{"refund", "reimburse", "money back", "repay", "chargeback"}},
	{ClaimCompensation, []string{"compensat", "inconvenience", "distress", "lost wages", "loss of earnings"}},
	{ClaimDamages, []string{"damage", "broken", "destroyed", "defect", "repair", "loss"}},
	{ClaimBreach, []string{"breach", "violat", "terms of the contract", "failed to comply", "warranty"}},
	{ClaimPerformance, []string{"deliver", "perform", "complete the", "finish", "specific performance", "service not provided"}},
}

// InferClaimType guesses a claim type from its description by keyword
// matching, returning ClaimOther when nothing matches.
func InferClaimType(description string) ClaimType {
	text := strings.ToLower(description)
	for _, entry := range claimTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.claimType
			}
		}
	}
	return ClaimOther
}
