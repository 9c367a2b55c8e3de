package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/parse"
)

// dedupTextRunes is the length of the event text prefix used as part of the
// dedup key.
const dedupTextRunes = 50

type timelineKey struct {
	date string
	text string
}

func keyOf(e core.TimelineEvent) timelineKey {
	text := []rune(strings.ToLower(strings.TrimSpace(e.Event)))
	if len(text) > dedupTextRunes {
		text = text[:dedupTextRunes]
	}
	return timelineKey{date: strings.TrimSpace(e.Date), text: string(text)}
}

// MergeTimeline concatenates the lists, drops duplicates keyed by date and
// event text (first occurrence wins) and sorts the result chronologically.
// Dated events come before undated ones; undated events are ordered by their
// raw date string. The merge is stable and idempotent.
func MergeTimeline(lists ...[]core.TimelineEvent) []core.TimelineEvent {
	seen := make(map[timelineKey]bool)
	merged := make([]core.TimelineEvent, 0)
	for _, list := range lists {
		for _, e := range list {
			k := keyOf(e)
			if seen[k] {
				continue
			}
			seen[k] = true
			if e.ParsedDate == nil {
				e.ParsedDate = parse.EventDate(e.Date)
			}
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		switch {
		case a.ParsedDate != nil && b.ParsedDate != nil:
			return a.ParsedDate.Before(*b.ParsedDate)
		case a.ParsedDate != nil:
			return true
		case b.ParsedDate != nil:
			return false
		default:
			return a.Date < b.Date
		}
	})
	return merged
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}|^\d{1,2}[/.]\d{1,2}[/.]\d{4}$`)

// DeterministicTimeline derives timeline events without the reasoning
// service: dated event facts of both parties and dated entities found in
// evidence summaries.
func DeterministicTimeline(extraction core.ExtractionOutput, evidence []core.EvidenceSummary) []core.TimelineEvent {
	var events []core.TimelineEvent

	addFacts := func(facts []core.ExtractedFact, source core.EventSource) {
		for _, f := range facts {
			if f.Category != core.FactEvent || f.Date == "" {
				continue
			}
			parsed := parse.EventDate(f.Date)
			if parsed == nil {
				continue
			}
			events = append(events, core.TimelineEvent{
				ID:         "timeline_" + f.ID,
				Date:       f.Date,
				ParsedDate: parsed,
				Event:      f.Statement,
				Source:     source,
				SourceID:   f.ID,
			})
		}
	}
	addFacts(extraction.ClaimantFacts, core.SourceClaimant)
	addFacts(extraction.RespondentFacts, core.SourceRespondent)

	for _, ev := range evidence {
		for i, ent := range ev.ExtractedEntities {
			value := strings.TrimSpace(ent.Value)
			if !strings.EqualFold(ent.Type, "date") && !datePattern.MatchString(value) {
				continue
			}
			parsed := parse.EventDate(value)
			if parsed == nil {
				continue
			}
			text := strings.TrimSpace(ent.Context)
			if text == "" {
				text = ev.Filename + " dated " + value
			}
			events = append(events, core.TimelineEvent{
				ID:         ev.ID + "_date_" + strconv.Itoa(i+1),
				Date:       value,
				ParsedDate: parsed,
				Event:      text,
				Source:     core.SourceEvidence,
				SourceID:   ev.ID,
				Details:    ev.Summary,
			})
		}
	}
	return events
}
