package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/events"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/testutil"
)

type stubLoader map[string]*core.AnalysisInput

func (l stubLoader) Load(_ context.Context, caseID string) (*core.AnalysisInput, error) {
	in, ok := l[caseID]
	if !ok {
		return nil, core.ErrNoInput(caseID)
	}
	return in, nil
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *state.MemoryJobStore) {
	t.Helper()
	store := state.NewMemoryJobStore()
	t.Cleanup(func() { _ = store.Close() })
	return NewServer(store, nil, opts...), store
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestGetJob(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	job, err := store.GetOrCreate(ctx, "case-1", false)
	require.NoError(t, err)
	progress := 60
	phase := core.PhaseTimeline
	require.NoError(t, store.UpdateJob(ctx, job.ID, core.JobUpdate{
		SubPhase: &phase,
		Progress: &progress,
		Timeline: &core.TimelineOutput{Events: []core.TimelineEvent{
			{ID: "e1", Date: "2024-01-01", Event: "Contract signed", Source: core.SourceClaimant},
		}},
	}))

	rec := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[JobResponse](t, rec)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "case-1", got.CaseID)
	assert.Equal(t, core.JobQueued, got.Status)
	assert.Equal(t, "building_timeline", got.SubPhase)
	assert.Equal(t, 60, got.Progress)
	require.NotNil(t, got.Timeline)
	assert.Len(t, got.Timeline.Events, 1)
}

func TestGetJob_NotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/jobs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
}

func TestGetCaseJob(t *testing.T) {
	s, store := newTestServer(t)

	job, err := store.GetOrCreate(context.Background(), "case-7", false)
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/cases/case-7/job")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, job.ID, decode[JobResponse](t, rec).ID)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/cases/unknown/job")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	for _, id := range []string{"case-a", "case-b", "case-c"} {
		_, err := store.Enqueue(ctx, id)
		require.NoError(t, err)
	}
	processing, err := store.GetJobByCase(ctx, "case-b")
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessing(ctx, processing.ID, false))

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCases []string
	}{
		{"default is queued", "", http.StatusOK, []string{"case-a", "case-c"}},
		{"processing", "?status=PROCESSING", http.StatusOK, []string{"case-b"}},
		{"limit", "?status=QUEUED&limit=1", http.StatusOK, nil},
		{"bad status", "?status=DONE", http.StatusBadRequest, nil},
		{"bad limit", "?limit=-3", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/api/v1/jobs"+tt.query)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			got := decode[JobListResponse](t, rec)
			cases := make([]string, 0, len(got.Jobs))
			for _, j := range got.Jobs {
				cases = append(cases, j.CaseID)
				assert.Nil(t, j.Extraction, "list entries carry no checkpoints")
			}
			if tt.wantCases == nil {
				assert.Len(t, cases, 1)
				return
			}
			assert.ElementsMatch(t, tt.wantCases, cases)
			assert.Equal(t, len(tt.wantCases), got.Count)
		})
	}
}

func TestEnqueue(t *testing.T) {
	loader := stubLoader{"case-1": testutil.NewTestInput(func(in *core.AnalysisInput) { in.CaseID = "case-1" })}
	s, store := newTestServer(t, WithInputLoader(loader))

	rec := doRequest(t, s, http.MethodPost, "/api/v1/cases/case-1/enqueue")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	got := decode[JobResponse](t, rec)
	assert.Equal(t, core.JobQueued, got.Status)

	job, err := store.GetJobByCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, got.ID, job.ID)
}

func TestEnqueue_MissingInput(t *testing.T) {
	s, store := newTestServer(t, WithInputLoader(stubLoader{}))

	rec := doRequest(t, s, http.MethodPost, "/api/v1/cases/case-404/enqueue")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, core.CodeNoInput, decode[map[string]string](t, rec)["code"])

	_, err := store.GetJobByCase(context.Background(), "case-404")
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound), "no job may be recorded")
}

func TestEnqueue_InFlight(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	job, err := store.Enqueue(ctx, "case-busy")
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessing(ctx, job.ID, false))

	rec := doRequest(t, s, http.MethodPost, "/api/v1/cases/case-busy/enqueue")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, core.CodeJobInFlight, decode[map[string]string](t, rec)["code"])
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, WithCORSOrigins([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEventsRoute(t *testing.T) {
	bus := events.New(10)
	defer bus.Close()

	store := state.NewMemoryJobStore()
	defer store.Close()

	without := NewServer(store, nil)
	rec := doRequest(t, without, http.MethodGet, "/api/v1/events")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	with := NewServer(store, bus)
	ts := httptest.NewServer(with.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
}
