package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/agentforge/pkg/domain/testcase"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const testCaseSchema = `
CREATE TABLE IF NOT EXISTS test_cases (
	id TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	expected_behavior TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS test_runs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	test_case_id TEXT NOT NULL REFERENCES test_cases(id) ON DELETE CASCADE,
	passed INTEGER NOT NULL,
	output TEXT NOT NULL DEFAULT '',
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_test_runs_case ON test_runs(test_case_id);
`

// TestCaseStore keeps test cases and their runs in SQLite. The count and
// pass rate it reports feed the publish gate.
type TestCaseStore struct {
	db *sql.DB
}

// OpenTestCaseStore opens (or creates) the database at path.
func OpenTestCaseStore(path string) (*TestCaseStore, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open test case db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := NewTestCaseStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewTestCaseStore wraps db and ensures the schema.
func NewTestCaseStore(db *sql.DB) (*TestCaseStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if _, err := db.Exec(testCaseSchema); err != nil {
		return nil, fmt.Errorf("create test case schema: %w", err)
	}
	return &TestCaseStore{db: db}, nil
}

func (s *TestCaseStore) Close() error {
	return s.db.Close()
}

// AddTestCase inserts tc, assigning an id and creation time when unset.
func (s *TestCaseStore) AddTestCase(ctx context.Context, tc *testcase.Case) error {
	if strings.TrimSpace(tc.Input) == "" {
		return fmt.Errorf("test case input is required")
	}
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	if tc.CreatedAt.IsZero() {
		tc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO test_cases (id, input, expected_behavior, tags, created_at) VALUES (?, ?, ?, ?, ?)",
		tc.ID, tc.Input, tc.ExpectedBehavior, strings.Join(tc.Tags, ","), tc.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert test case: %w", err)
	}
	return nil
}

// ListTestCases returns test cases in creation order.
func (s *TestCaseStore) ListTestCases(ctx context.Context) ([]testcase.Case, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, input, expected_behavior, tags, created_at FROM test_cases ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	defer rows.Close()

	out := make([]testcase.Case, 0)
	for rows.Next() {
		var (
			tc        testcase.Case
			tags      string
			createdMs int64
		)
		if err := rows.Scan(&tc.ID, &tc.Input, &tc.ExpectedBehavior, &tags, &createdMs); err != nil {
			return nil, err
		}
		if tags != "" {
			tc.Tags = strings.Split(tags, ",")
		}
		tc.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, tc)
	}
	return out, rows.Err()
}

// DeleteTestCase removes a test case and its runs.
func (s *TestCaseStore) DeleteTestCase(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM test_runs WHERE test_case_id = ?", id); err != nil {
		return fmt.Errorf("delete test runs: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM test_cases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete test case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("test case %q not found", id)
	}
	return tx.Commit()
}

// RecordRun stores the outcome of running a test case.
func (s *TestCaseStore) RecordRun(ctx context.Context, run *testcase.Run) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM test_cases WHERE id = ?", run.TestCaseID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("test case %q not found", run.TestCaseID)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO test_runs (id, test_case_id, passed, output, recorded_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.TestCaseID, run.Passed, run.Output, run.RecordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert test run: %w", err)
	}
	return nil
}

// Count returns the number of test cases.
func (s *TestCaseStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM test_cases").Scan(&n); err != nil {
		return 0, fmt.Errorf("count test cases: %w", err)
	}
	return n, nil
}

// PassRate counts only the latest run of each test case.
func (s *TestCaseStore) PassRate(ctx context.Context) (*float64, error) {
	var total, passed sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1), SUM(passed) FROM test_runs
		WHERE seq IN (SELECT MAX(seq) FROM test_runs GROUP BY test_case_id)`).Scan(&total, &passed)
	if err != nil {
		return nil, fmt.Errorf("compute pass rate: %w", err)
	}
	if !total.Valid || total.Int64 == 0 {
		return nil, nil
	}
	rate := float64(passed.Int64) / float64(total.Int64) * 100
	return &rate, nil
}

var _ testcase.Repository = (*TestCaseStore)(nil)
