// Package parse turns raw reasoning-service text into validated domain
// records. Nothing in this package returns a partially valid value: on any
// failure the caller receives the documented empty default and a parse
// error it can log and record.
package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

const fence = "```"

// StripCodeFence removes a Markdown code fence around the payload. Models
// often wrap JSON in ```json ... ``` or prefix it with a sentence, so the
// first fenced block is used when one exists.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, fence)
	if start < 0 {
		return s
	}

	body := s[start+len(fence):]
	// Drop the info string (e.g. "json") up to the end of the opening line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		info := strings.TrimSpace(body[:nl])
		if !strings.ContainsAny(info, "{[") {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}

	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// Record is one decoded JSON object.
type Record map[string]interface{}

func decode(raw string) (interface{}, error) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, core.ErrParse(core.CodeEmptyResponse, "empty response")
	}

	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, core.ErrParse(core.CodeInvalidJSON, "response is not valid JSON").
			WithCause(err).
			WithDetail("excerpt", excerpt(text, 120))
	}
	return v, nil
}

// DecodeArray decodes a JSON array of objects. A top-level object holding
// the array under one of keys is accepted too. Non-object elements are
// skipped.
func DecodeArray(raw string, keys ...string) ([]Record, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if obj, ok := v.(map[string]interface{}); ok {
		v = nil
		for _, k := range keys {
			if inner, found := obj[k]; found {
				v = inner
				break
			}
		}
		if v == nil {
			return nil, core.ErrParse(core.CodeUnexpectedShape,
				fmt.Sprintf("expected array or object with one of %v", keys))
		}
	}

	items, ok := v.([]interface{})
	if !ok {
		return nil, core.ErrParse(core.CodeUnexpectedShape, fmt.Sprintf("expected array, got %T", v))
	}
	return toRecords(items), nil
}

// DecodeObject decodes a JSON object.
func DecodeObject(raw string) (Record, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, core.ErrParse(core.CodeUnexpectedShape, fmt.Sprintf("expected object, got %T", v))
	}
	return obj, nil
}

func toRecords(items []interface{}) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

// String returns the first non-empty string value among keys. Numbers are
// formatted, anything else is ignored.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" && !strings.EqualFold(s, "null") {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Strings returns a list of non-empty strings under the first present key.
// A single string is treated as a one-element list.
func (r Record) Strings(keys ...string) []string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				switch s := item.(type) {
				case string:
					if s = strings.TrimSpace(s); s != "" {
						out = append(out, s)
					}
				case float64:
					out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
				}
			}
			return out
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

// Number returns the first parseable number among keys.
func (r Record) Number(keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := core.ParseNumber(r[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// OptionalNumber is Number as a pointer, nil when absent.
func (r Record) OptionalNumber(keys ...string) *float64 {
	if f, ok := r.Number(keys...); ok {
		return &f
	}
	return nil
}

// Score returns a [0,1] score under the first present key, or def.
func (r Record) Score(def float64, keys ...string) float64 {
	for _, k := range keys {
		if v, found := r[k]; found && v != nil {
			return core.ParseScore(v, def)
		}
	}
	return core.Clamp01(def)
}

// Bool reads a boolean, accepting "true"/"yes" strings.
func (r Record) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "y":
				return true
			}
			return false
		}
	}
	return false
}

// Object returns a nested object.
func (r Record) Object(keys ...string) Record {
	for _, k := range keys {
		if obj, ok := r[k].(map[string]interface{}); ok {
			return obj
		}
	}
	return nil
}

// Array returns nested objects under the first present key.
func (r Record) Array(keys ...string) []Record {
	for _, k := range keys {
		if items, ok := r[k].([]interface{}); ok {
			return toRecords(items)
		}
	}
	return nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
