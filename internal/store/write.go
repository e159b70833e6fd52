package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"xlsxcmp/internal/harness"
)

// Run is one recorded harness invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Manifest  string
	Results   []harness.CaseResult
}

// NewRun stamps a fresh run with a random ID and the current time.
func NewRun(manifest string, results []harness.CaseResult) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Manifest:  manifest,
		Results:   results,
	}
}

// RecordRun writes a run, its case outcomes, and their mismatches in one
// transaction. Counts are derived here so readers never recompute them.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	var passed, failed, skipped, genFailed, errored int
	for _, cr := range run.Results {
		switch cr.Status {
		case harness.StatusPassed:
			passed++
		case harness.StatusFailed:
			failed++
		case harness.StatusSkipped:
			skipped++
		case harness.StatusGeneratorFailed:
			genFailed++
		case harness.StatusError:
			errored++
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, manifest, total, passed, failed, skipped, generator_failed, errored)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		run.Manifest,
		len(run.Results),
		passed, failed, skipped, genFailed, errored,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for _, cr := range run.Results {
		detail := cr.Skip
		if cr.ErrMsg != "" {
			detail = cr.ErrMsg
		}
		mismatchCount := 0
		if cr.Result != nil {
			mismatchCount = len(cr.Result.Mismatches) + cr.Result.Remaining
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO case_results (run_id, name, status, detail, mismatch_count)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, cr.Name, string(cr.Status), detail, mismatchCount)
		if err != nil {
			return fmt.Errorf("record case %s: %w", cr.Name, err)
		}

		if cr.Result == nil {
			continue
		}
		for _, m := range cr.Result.Mismatches {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO mismatches
				(run_id, case_name, entry, elem_path, attr, kind, expected, actual)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, cr.Name, m.Entry, m.PathStr, m.Attr, string(m.Kind), m.Expected, m.Actual)
			if err != nil {
				return fmt.Errorf("record mismatch for %s: %w", cr.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
