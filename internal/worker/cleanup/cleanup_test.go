package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// fakeResult はsql.Resultのテスト用実装。
type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装
type mockExecutor struct {
	execCalled bool
	query      string
	args       []interface{}
	result     sql.Result
	err        error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.execCalled = true
	m.query = query
	m.args = args
	return m.result, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewCleanupJob_ReturnsNonNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	mock := &mockExecutor{
		result: &fakeResult{rowsAffected: 0},
	}
	job := NewCleanupJob(mock, logger)

	if job == nil {
		t.Fatal("NewCleanupJob は nil を返してはならない")
	}
}

func TestCleanupJob_Run_ExecutesDeleteQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	mock := &mockExecutor{
		result: &fakeResult{rowsAffected: 5},
	}
	job := NewCleanupJob(mock, logger)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !mock.execCalled {
		t.Fatal("ExecContext should be called")
	}
	if !strings.Contains(mock.query, "DELETE FROM sessions") {
		t.Errorf("query = %q, want DELETE FROM sessions", mock.query)
	}
	if !strings.Contains(mock.query, "expires_at < now()") {
		t.Errorf("query = %q, should filter by expires_at", mock.query)
	}
}

func TestCleanupJob_Run_LogsDeletedCount(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	mock := &mockExecutor{
		result: &fakeResult{rowsAffected: 3},
	}
	job := NewCleanupJob(mock, logger)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["deleted_count"] != float64(3) {
		t.Errorf("deleted_count = %v, want 3", entry["deleted_count"])
	}
}

func TestCleanupJob_Run_IdempotentWhenNothingToDelete(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	mock := &mockExecutor{
		result: &fakeResult{rowsAffected: 0},
	}
	job := NewCleanupJob(mock, logger)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run with nothing to delete should not fail: %v", err)
	}
}

func TestCleanupJob_Run_ReturnsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	mock := &mockExecutor{
		err: errors.New("connection refused"),
	}
	job := NewCleanupJob(mock, logger)

	if err := job.Run(context.Background()); err == nil {
		t.Error("Run should propagate the database error")
	}
}
