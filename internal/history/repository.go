// Package history stores suite runs so that results can be compared over time.
package history

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/apijudge/internal/database"
	"github.com/at-ishikawa/apijudge/internal/report"
)

//go:generate mockgen -source=repository.go -destination=../mocks/history/mock_repository.go -package=mock_history

const DefaultRunLimit = 20

// Repository defines operations for storing and reading suite runs.
type Repository interface {
	SaveRun(ctx context.Context, run report.Run) error
	FindRuns(ctx context.Context, limit int) ([]RunRecord, error)
	FindResults(ctx context.Context, runID string) ([]report.CaseResult, error)
}

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db *sqlx.DB
}

func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// SaveRun inserts the run and all of its case results in a single transaction.
func (r *DBRepository) SaveRun(ctx context.Context, run report.Run) error {
	rows := make([]caseRow, 0, len(run.Results))
	for i, result := range run.Results {
		row, err := newCaseRow(run.ID, i, result)
		if err != nil {
			return fmt.Errorf("case %q: %w", result.Name, err)
		}
		rows = append(rows, row)
	}
	summary := run.Summary()

	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO test_runs (id, suite_name, backend, started_at, finished_at, total, passed, failed, errored) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			run.ID, run.SuiteName, run.Backend, run.StartedAt.UTC(), run.FinishedAt.UTC(),
			summary.Total, summary.Passed, summary.Failed, summary.Errored,
		)
		if err != nil {
			return fmt.Errorf("insert test run: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		query := database.BuildMultiRowInsert("test_case_results", caseColumns, len(rows))
		var args []interface{}
		for _, row := range rows {
			args = append(args, row.args()...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert test case results: %w", err)
		}
		return nil
	})
}

// FindRuns returns the most recent runs first.
func (r *DBRepository) FindRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	var runs []RunRecord
	if err := r.db.SelectContext(ctx, &runs,
		"SELECT id, suite_name, backend, started_at, finished_at, total, passed, failed, errored FROM test_runs ORDER BY started_at DESC LIMIT ?",
		limit,
	); err != nil {
		return nil, fmt.Errorf("load test runs: %w", err)
	}
	return runs, nil
}

func (r *DBRepository) FindResults(ctx context.Context, runID string) ([]report.CaseResult, error) {
	var rows []caseRow
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT run_id, position, name, method, endpoint, status, status_code, response_time_ms, performance, is_valid, feedback, missing_fields, security_issues, metadata, reason, error FROM test_case_results WHERE run_id = ? ORDER BY position",
		runID,
	); err != nil {
		return nil, fmt.Errorf("load test case results of %s: %w", runID, err)
	}

	results := make([]report.CaseResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toResult()
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", row.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Writer stores every run it receives.
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

func (w *Writer) Write(ctx context.Context, run report.Run) error {
	if err := w.repo.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("repo.SaveRun(%s) > %w", run.ID, err)
	}
	return nil
}
