package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/service"
)

// StatementLimits bounds the statements sent to the reasoning service.
type StatementLimits struct {
	// MinChars is the length at or below which a statement is treated as
	// empty.
	MinChars int
	// MaxChars truncates longer statements.
	MaxChars int
}

func (l StatementLimits) trivial(statement string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(statement)) <= l.MinChars
}

// FactExtractor pulls facts out of one party's statement.
type FactExtractor struct {
	caller  *Caller
	prompts *service.PromptRenderer
	limits  StatementLimits
}

// NewFactExtractor creates a fact extractor.
func NewFactExtractor(caller *Caller, prompts *service.PromptRenderer, limits StatementLimits) *FactExtractor {
	return &FactExtractor{caller: caller, prompts: prompts, limits: limits}
}

// Extract returns the facts asserted in statement. Trivial statements are
// skipped without a call.
func (e *FactExtractor) Extract(ctx context.Context, caseCtx string, party core.Party, statement string) (core.PhaseOutcome[[]core.ExtractedFact], Usage) {
	if e.limits.trivial(statement) {
		return core.Skipped([]core.ExtractedFact{}, fmt.Sprintf("%s statement is empty or too short", party)), Usage{}
	}

	p, err := e.prompts.RenderFactExtraction(service.FactExtractionParams{
		CaseContext: caseCtx,
		Party:       party,
		Statement:   truncateText(statement, e.limits.MaxChars),
	})
	if err != nil {
		return core.Degraded([]core.ExtractedFact{}, err), Usage{}
	}

	text, usage, err := e.caller.Call(ctx, core.PhaseExtraction, p)
	if err != nil {
		return core.Degraded([]core.ExtractedFact{}, fmt.Errorf("%s facts: %w", party, err)), Usage{}
	}

	facts, err := parse.Facts(text, party)
	if err != nil {
		return core.Degraded(facts, fmt.Errorf("%s facts: %w", party, err)), Usage{}
	}
	return core.Succeeded(facts), usage
}

// amountTolerance is the largest difference at which a claim amount and a
// fact amount are considered equal.
const amountTolerance = 0.01

// minSharedKeywords is the keyword overlap that links a claim to a fact.
const minSharedKeywords = 2

// ClaimParser turns structured claim items, or failing that the statement
// itself, into parsed claims linked to supporting facts.
type ClaimParser struct {
	caller  *Caller
	prompts *service.PromptRenderer
	limits  StatementLimits
}

// NewClaimParser creates a claim parser.
func NewClaimParser(caller *Caller, prompts *service.PromptRenderer, limits StatementLimits) *ClaimParser {
	return &ClaimParser{caller: caller, prompts: prompts, limits: limits}
}

// Parse returns the party's claims. Structured items are used directly and
// never trigger a reasoning call.
func (p *ClaimParser) Parse(ctx context.Context, caseCtx string, party core.Party, items []core.ClaimItem, statement string, facts []core.ExtractedFact) (core.PhaseOutcome[[]core.ParsedClaim], Usage) {
	if len(items) > 0 {
		return core.Succeeded(ClaimsFromItems(party, items, facts)), Usage{}
	}
	if p.limits.trivial(statement) {
		return core.Skipped([]core.ParsedClaim{}, fmt.Sprintf("%s statement is empty or too short", party)), Usage{}
	}

	prompt, err := p.prompts.RenderClaimInference(service.ClaimInferenceParams{
		CaseContext: caseCtx,
		Party:       party,
		Statement:   truncateText(statement, p.limits.MaxChars),
		Facts:       facts,
	})
	if err != nil {
		return core.Degraded([]core.ParsedClaim{}, err), Usage{}
	}

	text, usage, err := p.caller.Call(ctx, core.PhaseExtraction, prompt)
	if err != nil {
		return core.Degraded([]core.ParsedClaim{}, fmt.Errorf("%s claims: %w", party, err)), Usage{}
	}

	claims, err := parse.Claims(text, party)
	if err != nil {
		return core.Degraded(claims, fmt.Errorf("%s claims: %w", party, err)), Usage{}
	}
	return core.Succeeded(claims), usage
}

// ClaimsFromItems converts structured claim items into parsed claims. Items
// without a description are dropped.
func ClaimsFromItems(party core.Party, items []core.ClaimItem, facts []core.ExtractedFact) []core.ParsedClaim {
	claims := make([]core.ParsedClaim, 0, len(items))
	for _, item := range items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		claims = append(claims, core.ParsedClaim{
			ID:              fmt.Sprintf("%s_claim_%d", party, len(claims)+1),
			Type:            parse.ClaimType(item.Type, desc),
			Description:     desc,
			Amount:          item.Amount,
			Basis:           strings.TrimSpace(item.Basis),
			SupportingFacts: linkFacts(desc, item.Amount, facts),
		})
	}
	return claims
}

func linkFacts(description string, amount *float64, facts []core.ExtractedFact) []string {
	claimWords := keywords(description)
	var linked []string
	for _, f := range facts {
		if amountsMatch(amount, f.Amount) || sharedKeywords(claimWords, keywords(f.Statement)) >= minSharedKeywords {
			linked = append(linked, f.ID)
		}
	}
	return linked
}

func amountsMatch(a, b *float64) bool {
	return a != nil && b != nil && math.Abs(*a-*b) <= amountTolerance
}

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "been": true,
	"before": true, "being": true, "claim": true, "could": true, "does": true,
	"from": true, "have": true, "into": true, "just": true, "more": true,
	"must": true, "only": true, "other": true, "over": true, "same": true,
	"should": true, "some": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "very": true, "were": true,
	"what": true, "when": true, "which": true, "while": true, "will": true,
	"with": true, "would": true, "your": true,
}

// keywords returns the distinct lowercased words of four or more letters
// that are not stop words.
func keywords(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= 4 && !stopWords[w] {
			set[w] = true
		}
	}
	return set
}

func sharedKeywords(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
