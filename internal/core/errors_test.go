package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := (&DomainError{
		Category: ErrCatPersistence,
		Code:     "CODE",
		Message:  "message",
	}).WithCause(cause)

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be unwrapped")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match cause")
	}

	match := &DomainError{Category: ErrCatPersistence, Code: "CODE"}
	if !errors.Is(err, match) {
		t.Fatalf("expected errors.Is to match category and code")
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := &DomainError{Category: ErrCatInput, Code: "X", Message: "msg"}
	err.WithDetail("k", "v")
	if err.Details == nil || err.Details["k"] != "v" {
		t.Fatalf("expected details to be set")
	}
}

func TestErrorFactories(t *testing.T) {
	if ErrConfiguration("C", "m").Retryable {
		t.Fatalf("configuration should not be retryable")
	}
	if !ErrExternal("C", "m", true).Retryable {
		t.Fatalf("external should honour retryable flag")
	}
	if !ErrTimeout("m").Retryable {
		t.Fatalf("timeout should be retryable")
	}
	if !ErrRateLimit("m").Retryable {
		t.Fatalf("rate limit should be retryable")
	}
	if ErrAuth("m").Retryable {
		t.Fatalf("auth should not be retryable")
	}
	if ErrParse("C", "m").Retryable {
		t.Fatalf("parse should not be retryable")
	}
	if ErrPersistence("C", "m").Retryable {
		t.Fatalf("persistence should not be retryable")
	}
	if got := ErrNoInput("case-1").Category; got != ErrCatInput {
		t.Fatalf("ErrNoInput category = %s, want input", got)
	}
}

func TestGetCategory_Wrapped(t *testing.T) {
	err := fmt.Errorf("saving checkpoint: %w", ErrPersistence(CodeWriteFailed, "disk full"))
	if GetCategory(err) != ErrCatPersistence {
		t.Fatalf("GetCategory() = %s, want persistence", GetCategory(err))
	}
	if GetCategory(errors.New("plain")) != ErrCatInternal {
		t.Fatalf("plain errors should be internal")
	}
	if !IsCategory(err, ErrCatPersistence) {
		t.Fatalf("IsCategory() should match wrapped error")
	}
}

func TestIsJobFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrPersistence(CodeWriteFailed, "x"), true},
		{ErrConfiguration(CodeMissingCredentials, "x"), true},
		{ErrCancelled("x"), true},
		{ErrParse(CodeInvalidJSON, "x"), false},
		{ErrRateLimit("x"), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsJobFatal(tt.err); got != tt.want {
			t.Errorf("IsJobFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
