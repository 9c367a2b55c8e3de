package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatConfiguration ErrorCategory = "configuration"    // Missing credentials or invalid settings
	ErrCatExternal      ErrorCategory = "external_service" // Reasoning service call failed
	ErrCatRateLimit     ErrorCategory = "rate_limit"       // Reasoning service throttled the call
	ErrCatTimeout       ErrorCategory = "timeout"          // Call exceeded its deadline
	ErrCatAuth          ErrorCategory = "auth"             // Credentials rejected
	ErrCatParse         ErrorCategory = "parse"            // Malformed model output
	ErrCatPersistence   ErrorCategory = "persistence"      // Job store read/write failed
	ErrCatInput         ErrorCategory = "input"            // Missing or invalid case input
	ErrCatConflict      ErrorCategory = "conflict"         // Job already in flight
	ErrCatNotFound      ErrorCategory = "not_found"        // Resource not found
	ErrCatCancelled     ErrorCategory = "cancelled"        // Run cancelled between phases
	ErrCatInternal      ErrorCategory = "internal"         // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrConfiguration creates a configuration error. Configuration errors are
// fatal and must surface before any phase runs.
func ErrConfiguration(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatConfiguration,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrExternal creates a reasoning service error.
func ErrExternal(code, message string, retryable bool) *DomainError {
	return &DomainError{
		Category:  ErrCatExternal,
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatRateLimit,
		Code:      "RATE_LIMITED",
		Message:   message,
		Retryable: true,
	}
}

// ErrAuth creates an authentication error.
func ErrAuth(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      "AUTH_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrParse creates a parse error for malformed model output.
func ErrParse(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatParse,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrPersistence creates a job store error.
func ErrPersistence(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatPersistence,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrInput creates an input error.
func ErrInput(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInput,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrConflict creates a conflict error.
func ErrConflict(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatConflict,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      "CANCELLED",
		Message:   message,
		Retryable: false,
	}
}

// ErrNoInput reports that no usable input exists for a case.
func ErrNoInput(caseID string) *DomainError {
	return &DomainError{
		Category:  ErrCatInput,
		Code:      CodeNoInput,
		Message:   fmt.Sprintf("no input available for case %s", caseID),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// IsJobFatal reports whether an error must fail the whole job rather than
// degrade a single phase.
func IsJobFatal(err error) bool {
	switch GetCategory(err) {
	case ErrCatPersistence, ErrCatConfiguration, ErrCatCancelled:
		return true
	default:
		return false
	}
}

// Predefined error codes
const (
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeUnknownProvider    = "UNKNOWN_PROVIDER"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeNoReasoning        = "NO_REASONING_SERVICE"

	CodeNoInput          = "NO_INPUT"
	CodeMissingStatement = "MISSING_CLAIMANT_STATEMENT"
	CodeMissingCaseID    = "MISSING_CASE_ID"
	CodeInvalidInput     = "INVALID_INPUT"

	CodeJobInFlight   = "JOB_IN_FLIGHT"
	CodeJobNotQueued  = "JOB_NOT_QUEUED"
	CodeJobNotFound   = "JOB_NOT_FOUND"
	CodeWriteFailed   = "WRITE_FAILED"
	CodeReadFailed    = "READ_FAILED"
	CodeBadCheckpoint = "INVALID_CHECKPOINT"

	CodeEmptyResponse    = "EMPTY_RESPONSE"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeUnexpectedShape  = "UNEXPECTED_SHAPE"
	CodeMalformedPayload = "MALFORMED_RESPONSE"
	CodeProviderFailed   = "PROVIDER_FAILED"
	CodeNetwork          = "NETWORK"
)
