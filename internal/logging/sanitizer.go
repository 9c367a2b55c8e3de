package logging

import (
	"regexp"
)

// Sanitizer redacts credentials and personal identifiers from log output.
// Party statements routinely carry contact and payment details, and provider
// errors sometimes echo API keys, so both end up in the pattern set.
type Sanitizer struct {
	patterns []*regexp.Regexp
	redacted string
}

// NewSanitizer creates a sanitizer with default patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// Anthropic (before the generic sk- pattern)
		`sk-ant-[a-zA-Z0-9-]{40,}`,
		// OpenAI
		`sk-(?:proj-)?[A-Za-z0-9_-]{20,}`,
		// Bearer tokens
		`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
		// Header and config style API keys
		`(?i)(?:x-)?api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{20,}`,
		// E-mail addresses
		`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
		// IBAN
		`\b[A-Z]{2}[0-9]{2}(?:\s?[A-Z0-9]{4}){3,7}\b`,
		// Payment card numbers
		`\b(?:\d[ -]?){13,19}\b`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, s.redacted)
	}
	return result
}

// AddPattern adds a custom pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}
