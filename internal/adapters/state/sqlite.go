package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

//go:embed migrations/001_analysis_jobs.sql
var migrationV1 string

//go:embed migrations/002_phase_diagnostics.sql
var migrationV2 string

const jobColumns = `id, case_id, status, sub_phase, progress, tokens_used,
	processing_time_ms, estimated_cost, extraction, comparison, timeline,
	contradictions, credibility, diagnostics, created_at, updated_at,
	started_at, completed_at, failed_at, failure_reason`

// SQLiteJobStore implements core.JobStore with SQLite storage.
type SQLiteJobStore struct {
	dbPath string
	db     *sql.DB
	mu     sync.RWMutex
	now    func() time.Time

	// Retry configuration for busy databases shared between processes.
	maxRetries    int
	baseRetryWait time.Duration
}

// SQLiteJobStoreOption configures the store.
type SQLiteJobStoreOption func(*SQLiteJobStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SQLiteJobStoreOption {
	return func(s *SQLiteJobStore) {
		s.now = now
	}
}

// NewSQLiteJobStore opens (and migrates) the job database at dbPath.
func NewSQLiteJobStore(dbPath string, opts ...SQLiteJobStoreOption) (*SQLiteJobStore, error) {
	s := &SQLiteJobStore{
		dbPath:        dbPath,
		now:           time.Now,
		maxRetries:    5,
		baseRetryWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating job store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteJobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate runs pending migrations.
func (s *SQLiteJobStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{migrationV1, migrationV2}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, formatTime(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

// splitStatements splits a SQL script into individual statements.
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		lines := strings.Split(stmt, "\n")
		var sqlLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

// retryWrite executes a write operation, retrying while the database is busy.
func (s *SQLiteJobStore) retryWrite(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isSQLiteBusy(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.baseRetryWait * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("%s failed after %d retries: %w", operation, s.maxRetries, lastErr)
}

// isSQLiteBusy checks if an error is a SQLite busy/locked error.
func isSQLiteBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// GetOrCreate implements core.JobStore. The insert-or-reset is a single
// conditional upsert, so two callers racing on the same case cannot both
// reset a PROCESSING job.
func (s *SQLiteJobStore) GetOrCreate(ctx context.Context, caseID string, force bool) (*core.AnalysisJob, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, core.ErrInput(core.CodeMissingCaseID, "case id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(s.now())
	var affected int64
	err := s.retryWrite(ctx, "GetOrCreate", func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO analysis_jobs (id, case_id, status, progress, created_at, updated_at)
			VALUES (?, ?, 'QUEUED', 0, ?, ?)
			ON CONFLICT(case_id) DO UPDATE SET
				status = 'QUEUED',
				sub_phase = NULL,
				progress = 0,
				tokens_used = 0,
				processing_time_ms = 0,
				estimated_cost = 0,
				diagnostics = NULL,
				started_at = NULL,
				completed_at = NULL,
				failed_at = NULL,
				failure_reason = NULL,
				updated_at = excluded.updated_at
			WHERE analysis_jobs.status <> 'PROCESSING' OR ?
		`, uuid.NewString(), caseID, now, now, force)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, writeError("creating job", err)
	}
	if affected == 0 {
		return nil, core.ErrConflict(core.CodeJobInFlight, "analysis already in progress for case "+caseID).
			WithDetail("case_id", caseID)
	}

	return s.getJob(ctx, "case_id", caseID)
}

// Enqueue implements core.JobStore.
func (s *SQLiteJobStore) Enqueue(ctx context.Context, caseID string) (*core.AnalysisJob, error) {
	return s.GetOrCreate(ctx, caseID, false)
}

// MarkProcessing implements core.JobStore.
func (s *SQLiteJobStore) MarkProcessing(ctx context.Context, jobID string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := formatTime(s.now())
	var affected int64
	err := s.retryWrite(ctx, "MarkProcessing", func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE analysis_jobs
			SET status = 'PROCESSING', started_at = ?, updated_at = ?
			WHERE id = ? AND (status = 'QUEUED' OR (? AND status = 'PROCESSING'))
		`, now, now, jobID, force)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return writeError("marking job processing", err)
	}
	if affected > 0 {
		return nil
	}

	job, err := s.getJob(ctx, "id", jobID)
	if err != nil {
		return err
	}
	return core.ErrConflict(core.CodeJobNotQueued,
		fmt.Sprintf("job %s is %s, not QUEUED", jobID, job.Status)).WithDetail("case_id", job.CaseID)
}

// UpdateJob implements core.JobStore.
func (s *SQLiteJobStore) UpdateJob(ctx context.Context, jobID string, update core.JobUpdate) error {
	if err := update.Validate(); err != nil {
		return core.ErrPersistence(core.CodeBadCheckpoint, "rejected invalid job update").WithCause(err)
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTime(s.now())}
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.SubPhase != nil {
		set("sub_phase", nullableString(string(*update.SubPhase)))
	}
	if update.Progress != nil {
		set("progress", *update.Progress)
	}
	if update.TokensUsed != nil {
		set("tokens_used", *update.TokensUsed)
	}
	if update.ProcessingTime != nil {
		set("processing_time_ms", update.ProcessingTime.Milliseconds())
	}
	if update.EstimatedCost != nil {
		set("estimated_cost", *update.EstimatedCost)
	}
	for column, checkpoint := range map[string]interface{}{
		"extraction":     update.Extraction,
		"comparison":     update.Comparison,
		"timeline":       update.Timeline,
		"contradictions": update.Contradictions,
		"credibility":    update.Credibility,
	} {
		if isNilPointer(checkpoint) {
			continue
		}
		data, err := json.Marshal(checkpoint)
		if err != nil {
			return core.ErrPersistence(core.CodeWriteFailed, "encoding "+column+" checkpoint").WithCause(err)
		}
		set(column, string(data))
	}
	if update.Diagnostics != nil {
		data, err := json.Marshal(update.Diagnostics)
		if err != nil {
			return core.ErrPersistence(core.CodeWriteFailed, "encoding diagnostics").WithCause(err)
		}
		set("diagnostics", string(data))
	}
	if update.StartedAt != nil {
		set("started_at", formatTime(*update.StartedAt))
	}
	if update.CompletedAt != nil {
		set("completed_at", formatTime(*update.CompletedAt))
	}
	if update.FailedAt != nil {
		set("failed_at", formatTime(*update.FailedAt))
	}
	if update.FailureReason != nil {
		set("failure_reason", nullableString(*update.FailureReason))
	}
	args = append(args, jobID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	err := s.retryWrite(ctx, "UpdateJob", func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE analysis_jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return writeError("updating job", err)
	}
	if affected == 0 {
		return core.ErrNotFound("job", jobID)
	}
	return nil
}

// GetJob implements core.JobStore.
func (s *SQLiteJobStore) GetJob(ctx context.Context, jobID string) (*core.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getJob(ctx, "id", jobID)
}

// GetJobByCase implements core.JobStore.
func (s *SQLiteJobStore) GetJobByCase(ctx context.Context, caseID string) (*core.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getJob(ctx, "case_id", caseID)
}

// ListByStatus implements core.JobStore.
func (s *SQLiteJobStore) ListByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.AnalysisJob, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM analysis_jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?",
		string(status), limit)
	if err != nil {
		return nil, readError("listing jobs", err)
	}
	defer rows.Close()

	jobs := []*core.AnalysisJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, readError("iterating jobs", err)
	}
	return jobs, nil
}

// getJob loads one job by a unique column. Callers hold the lock.
func (s *SQLiteJobStore) getJob(ctx context.Context, column, value string) (*core.AnalysisJob, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM analysis_jobs WHERE "+column+" = ?", value)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		if column == "case_id" {
			return nil, core.ErrNotFound("job for case", value)
		}
		return nil, core.ErrNotFound("job", value)
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*core.AnalysisJob, error) {
	var (
		job                                 core.AnalysisJob
		status                              string
		subPhase, failureReason             sql.NullString
		processingMs                        int64
		extraction, comparison, timeline    sql.NullString
		contradictions, credibility, diags  sql.NullString
		createdAt, updatedAt                string
		startedAt, completedAt, failedAtCol sql.NullString
	)

	err := row.Scan(
		&job.ID, &job.CaseID, &status, &subPhase, &job.Progress, &job.TokensUsed,
		&processingMs, &job.EstimatedCost, &extraction, &comparison, &timeline,
		&contradictions, &credibility, &diags, &createdAt, &updatedAt,
		&startedAt, &completedAt, &failedAtCol, &failureReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, readError("scanning job", err)
	}

	if job.Status, err = core.ParseJobStatus(status); err != nil {
		return nil, core.ErrPersistence(core.CodeBadCheckpoint, "stored job has invalid status").WithCause(err)
	}
	job.SubPhase = core.Phase(subPhase.String)
	job.FailureReason = failureReason.String
	job.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	job.StartedAt = parseNullableTime(startedAt)
	job.CompletedAt = parseNullableTime(completedAt)
	job.FailedAt = parseNullableTime(failedAtCol)

	if job.Extraction, err = decodeCheckpoint[core.ExtractionOutput](extraction, "extraction"); err != nil {
		return nil, err
	}
	if job.Comparison, err = decodeCheckpoint[core.ComparisonOutput](comparison, "comparison"); err != nil {
		return nil, err
	}
	if job.Timeline, err = decodeCheckpoint[core.TimelineOutput](timeline, "timeline"); err != nil {
		return nil, err
	}
	if job.Contradictions, err = decodeCheckpoint[core.ContradictionOutput](contradictions, "contradictions"); err != nil {
		return nil, err
	}
	if job.Credibility, err = decodeCheckpoint[core.CredibilityOutput](credibility, "credibility"); err != nil {
		return nil, err
	}
	if diags.Valid && diags.String != "" {
		if err := json.Unmarshal([]byte(diags.String), &job.Diagnostics); err != nil {
			return nil, core.ErrPersistence(core.CodeBadCheckpoint, "stored diagnostics are not valid JSON").WithCause(err)
		}
	}

	return &job, nil
}

// decodeCheckpoint decodes and validates a stored checkpoint. A checkpoint
// that does not match its schema is reported rather than returned.
func decodeCheckpoint[T any](col sql.NullString, name string) (*T, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal([]byte(col.String), out); err != nil {
		return nil, core.ErrPersistence(core.CodeBadCheckpoint, "stored "+name+" checkpoint is not valid JSON").WithCause(err)
	}
	if v, ok := any(out).(core.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, core.ErrPersistence(core.CodeBadCheckpoint, "stored "+name+" checkpoint is invalid").WithCause(err)
		}
	}
	return out, nil
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case *core.ExtractionOutput:
		return p == nil
	case *core.ComparisonOutput:
		return p == nil
	case *core.TimelineOutput:
		return p == nil
	case *core.ContradictionOutput:
		return p == nil
	case *core.CredibilityOutput:
		return p == nil
	default:
		return v == nil
	}
}

func writeError(op string, err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return core.ErrPersistence(core.CodeWriteFailed, op+" failed").WithCause(err)
}

func readError(op string, err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return core.ErrPersistence(core.CodeReadFailed, op+" failed").WithCause(err)
}

func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.ErrCancelled("job store operation cancelled").WithCause(err)
	}
	return nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed width so stored timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// Verify that SQLiteJobStore implements core.JobStore.
var _ core.JobStore = (*SQLiteJobStore)(nil)
