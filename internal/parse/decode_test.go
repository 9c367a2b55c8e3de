package parse

import (
	"testing"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/testutil"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"json fence", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"preamble", "Here are the facts:\n```json\n[]\n```\nDone.", `[]`},
		{"single line", "```json [1]```", `[1]`},
		{"whitespace", "  \n {} \n", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.raw); got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeArray(t *testing.T) {
	records, err := DecodeArray(`{"facts":[{"id":"a"},3,{"id":"b"}]}`, "facts")
	if err != nil {
		t.Fatalf("DecodeArray() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}

	_, err = DecodeArray(`{"other":[]}`, "facts")
	testutil.AssertCategory(t, err, core.ErrCatParse)

	_, err = DecodeArray(`"text"`)
	testutil.AssertCategory(t, err, core.ErrCatParse)
}

func TestDecode_Errors(t *testing.T) {
	var de *core.DomainError

	_, err := DecodeObject("   ")
	if !asDomain(err, &de) || de.Code != core.CodeEmptyResponse {
		t.Errorf("empty input: got %v", err)
	}

	_, err = DecodeObject("I could not analyze this case.")
	if !asDomain(err, &de) || de.Code != core.CodeInvalidJSON {
		t.Errorf("prose input: got %v", err)
	}
	if de != nil && de.Details["excerpt"] == nil {
		t.Errorf("invalid JSON error should carry an excerpt")
	}

	_, err = DecodeObject(`[1,2]`)
	if !asDomain(err, &de) || de.Code != core.CodeUnexpectedShape {
		t.Errorf("array input: got %v", err)
	}
}

func TestRecord_Accessors(t *testing.T) {
	r, err := DecodeObject(`{
		"name": " Alice ",
		"nothing": "null",
		"year": 2024,
		"tags": ["a", "", 7, {"x":1}],
		"single": "only",
		"amount": "$1,250.50",
		"score": 1.7,
		"flag": "yes",
		"nested": {"k": "v"},
		"list": [{"k": 1}, "skip"]
	}`)
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}

	if got := r.String("missing", "name"); got != "Alice" {
		t.Errorf("String() = %q", got)
	}
	if got := r.String("nothing"); got != "" {
		t.Errorf("String(null) = %q, want empty", got)
	}
	if got := r.String("year"); got != "2024" {
		t.Errorf("String(number) = %q", got)
	}
	if got := r.Strings("tags"); len(got) != 2 || got[0] != "a" || got[1] != "7" {
		t.Errorf("Strings() = %v", got)
	}
	if got := r.Strings("single"); len(got) != 1 {
		t.Errorf("Strings(single) = %v", got)
	}
	if got := r.OptionalNumber("amount"); got == nil || *got != 1250.50 {
		t.Errorf("OptionalNumber() = %v", got)
	}
	if got := r.OptionalNumber("missing"); got != nil {
		t.Errorf("OptionalNumber(missing) = %v, want nil", *got)
	}
	if got := r.Score(0.5, "score"); got != 1 {
		t.Errorf("Score() = %v, want clamped 1", got)
	}
	if got := r.Score(0.5, "missing"); got != 0.5 {
		t.Errorf("Score(missing) = %v, want default", got)
	}
	if !r.Bool("flag") {
		t.Errorf("Bool(yes) = false")
	}
	if r.Object("nested").String("k") != "v" {
		t.Errorf("Object() did not return nested record")
	}
	if got := r.Array("list"); len(got) != 1 {
		t.Errorf("Array() = %v", got)
	}
}

func asDomain(err error, target **core.DomainError) bool {
	de, ok := err.(*core.DomainError)
	if ok {
		*target = de
	}
	return ok
}
