package store

import (
	"context"
	"fmt"
	"time"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	Manifest        string    `json:"manifest"`
	Total           int       `json:"total"`
	Passed          int       `json:"passed"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	GeneratorFailed int       `json:"generator_failed"`
	Errored         int       `json:"errored"`
}

// CaseSummary is one recorded case outcome.
type CaseSummary struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	Detail        string `json:"detail,omitempty"`
	MismatchCount int    `json:"mismatch_count"`
}

// ListRuns returns run history, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, manifest, total, passed, failed, skipped, generator_failed, errored
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Manifest, &r.Total, &r.Passed,
			&r.Failed, &r.Skipped, &r.GeneratorFailed, &r.Errored); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, fmt.Errorf("list runs: bad timestamp %q: %w", started, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCases returns the case outcomes of one run, in name order.
func (s *Store) ListCases(ctx context.Context, runID string) ([]CaseSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, detail, mismatch_count
		FROM case_results
		WHERE run_id = ?
		ORDER BY name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []CaseSummary
	for rows.Next() {
		var c CaseSummary
		if err := rows.Scan(&c.Name, &c.Status, &c.Detail, &c.MismatchCount); err != nil {
			return nil, fmt.Errorf("list cases: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FailureHistory returns, most recent first, the status of one case across
// runs. Answers "when did this case start failing".
func (s *Store) FailureHistory(ctx context.Context, caseName string, limit int) ([]CaseSummary, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT cr.name, cr.status, cr.detail, cr.mismatch_count
		FROM case_results cr
		JOIN runs r ON r.id = cr.run_id
		WHERE cr.name = ?
		ORDER BY r.started_at DESC
		LIMIT ?
	`, caseName, limit)
	if err != nil {
		return nil, fmt.Errorf("failure history: %w", err)
	}
	defer rows.Close()

	var out []CaseSummary
	for rows.Next() {
		var c CaseSummary
		if err := rows.Scan(&c.Name, &c.Status, &c.Detail, &c.MismatchCount); err != nil {
			return nil, fmt.Errorf("failure history: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
