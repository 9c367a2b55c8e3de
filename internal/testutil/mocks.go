package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// MockReasoningService implements core.ReasoningService with scripted
// responses. Rules are matched in registration order against the system and
// user prompt; the first rule whose marker occurs in either wins.
type MockReasoningService struct {
	rules       []mockRule
	calls       []core.GenerateRequest
	validateErr error
	mu          sync.Mutex
}

type mockRule struct {
	marker string
	fn     func(context.Context, core.GenerateRequest) (core.GenerateResponse, error)
}

// NewMockReasoningService creates a mock with no rules. Unscripted prompts
// fail with a non-retryable external error.
func NewMockReasoningService() *MockReasoningService {
	return &MockReasoningService{}
}

// On answers prompts containing marker with text.
func (m *MockReasoningService) On(marker, text string) *MockReasoningService {
	return m.OnFunc(marker, func(_ context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
		return core.GenerateResponse{
			Text:         text,
			InputTokens:  100,
			OutputTokens: 50,
			Model:        "mock-" + string(req.Tier),
		}, nil
	})
}

// OnError fails prompts containing marker with err.
func (m *MockReasoningService) OnError(marker string, err error) *MockReasoningService {
	return m.OnFunc(marker, func(context.Context, core.GenerateRequest) (core.GenerateResponse, error) {
		return core.GenerateResponse{}, err
	})
}

// OnFunc answers prompts containing marker with fn.
func (m *MockReasoningService) OnFunc(marker string, fn func(context.Context, core.GenerateRequest) (core.GenerateResponse, error)) *MockReasoningService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{marker: marker, fn: fn})
	return m
}

// WithValidateError makes Validate fail.
func (m *MockReasoningService) WithValidateError(err error) *MockReasoningService {
	m.validateErr = err
	return m
}

// Validate implements core.Validator.
func (m *MockReasoningService) Validate() error {
	return m.validateErr
}

// Generate implements core.ReasoningService.
func (m *MockReasoningService) Generate(ctx context.Context, req core.GenerateRequest) (core.GenerateResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	var fn func(context.Context, core.GenerateRequest) (core.GenerateResponse, error)
	for _, r := range m.rules {
		if strings.Contains(req.SystemPrompt, r.marker) || strings.Contains(req.UserPrompt, r.marker) {
			fn = r.fn
			break
		}
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.GenerateResponse{}, core.ErrCancelled("mock call cancelled").WithCause(err)
	}
	if fn == nil {
		return core.GenerateResponse{}, core.ErrExternal("MOCK_UNSCRIPTED", "no scripted response", false)
	}
	return fn(ctx, req)
}

// Calls returns the recorded requests.
func (m *MockReasoningService) Calls() []core.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.GenerateRequest{}, m.calls...)
}

// CallCount returns the number of requests containing marker.
func (m *MockReasoningService) CallCount(marker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if strings.Contains(c.SystemPrompt, marker) || strings.Contains(c.UserPrompt, marker) {
			count++
		}
	}
	return count
}

// FailingJobStore wraps a core.JobStore and fails selected updates.
type FailingJobStore struct {
	core.JobStore
	failUpdate func(core.JobUpdate) bool
	err        error
	updates    int
	mu         sync.Mutex
}

// NewFailingJobStore wraps inner. Until configured it never fails.
func NewFailingJobStore(inner core.JobStore) *FailingJobStore {
	return &FailingJobStore{JobStore: inner}
}

// FailUpdateWhen makes UpdateJob return err for updates matching pred.
func (s *FailingJobStore) FailUpdateWhen(pred func(core.JobUpdate) bool, err error) *FailingJobStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdate = pred
	s.err = err
	return s
}

// UpdateJob implements core.JobStore.
func (s *FailingJobStore) UpdateJob(ctx context.Context, jobID string, update core.JobUpdate) error {
	s.mu.Lock()
	s.updates++
	fail := s.failUpdate != nil && s.failUpdate(update)
	err := s.err
	s.mu.Unlock()
	if fail {
		return err
	}
	return s.JobStore.UpdateJob(ctx, jobID, update)
}

// Updates returns the number of UpdateJob calls seen.
func (s *FailingJobStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Ensure interfaces are implemented
var _ core.ReasoningService = (*MockReasoningService)(nil)
var _ core.Validator = (*MockReasoningService)(nil)
var _ core.JobStore = (*FailingJobStore)(nil)
