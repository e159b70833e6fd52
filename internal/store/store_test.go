package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xlsxcmp/internal/compare"
	"xlsxcmp/internal/diff"
	"xlsxcmp/internal/harness"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResults() []harness.CaseResult {
	return []harness.CaseResult{
		{
			Name:   "test_simple01",
			Status: harness.StatusPassed,
			Result: &compare.Result{Equal: true},
		},
		{
			Name:   "test_simple02",
			Status: harness.StatusFailed,
			Result: &compare.Result{
				Mismatches: []diff.Mismatch{{
					Entry:    "xl/worksheets/sheet1.xml",
					PathStr:  "worksheet/sheetData[0]/row[0]/c[0]/v[0]",
					Kind:     diff.KindTextMismatch,
					Expected: "1",
					Actual:   "2",
				}},
				Remaining: 3,
			},
		},
		{
			Name:   "test_legend07",
			Status: harness.StatusSkipped,
			Skip:   "requires capability: legend-rendering",
		},
		{
			Name:   "test_broken",
			Status: harness.StatusGeneratorFailed,
			ErrMsg: "generator test_broken (case test_broken): exit code 1",
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening an existing database must not fail on schema reapply.
	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestRecordAndListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := NewRun("cases.yaml", sampleResults())
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "cases.yaml", got.Manifest)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 1, got.GeneratorFailed)
	assert.Equal(t, 0, got.Errored)
	assert.WithinDuration(t, run.StartedAt, got.StartedAt, time.Second)
}

func TestListCases(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := NewRun("cases.yaml", sampleResults())
	require.NoError(t, s.RecordRun(ctx, run))

	cases, err := s.ListCases(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, cases, 4)

	// Name order.
	assert.Equal(t, "test_broken", cases[0].Name)
	assert.Equal(t, "test_legend07", cases[1].Name)
	assert.Equal(t, "test_simple01", cases[2].Name)
	assert.Equal(t, "test_simple02", cases[3].Name)

	failed := cases[3]
	assert.Equal(t, string(harness.StatusFailed), failed.Status)
	// Truncated mismatches still count.
	assert.Equal(t, 4, failed.MismatchCount)

	skippedCase := cases[1]
	assert.Equal(t, "requires capability: legend-rendering", skippedCase.Detail)

	genFailed := cases[0]
	assert.Contains(t, genFailed.Detail, "exit code 1")

	// Unknown run ID returns nothing, not an error.
	none, err := s.ListCases(ctx, "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFailureHistory(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// Three runs where test_simple02 flips from passing to failing.
	statuses := []harness.Status{harness.StatusPassed, harness.StatusPassed, harness.StatusFailed}
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	for i, st := range statuses {
		run := NewRun("cases.yaml", []harness.CaseResult{{
			Name:   "test_simple02",
			Status: st,
			Result: &compare.Result{Equal: st == harness.StatusPassed},
		}})
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.RecordRun(ctx, run))
	}

	hist, err := s.FailureHistory(ctx, "test_simple02", 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)

	// Most recent first: the regression heads the list.
	assert.Equal(t, string(harness.StatusFailed), hist[0].Status)
	assert.Equal(t, string(harness.StatusPassed), hist[1].Status)
	assert.Equal(t, string(harness.StatusPassed), hist[2].Status)

	limited, err := s.FailureHistory(ctx, "test_simple02", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.FailureHistory(ctx, "test_never_ran", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListRunsOrderAndLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := NewRun("cases.yaml", []harness.CaseResult{{Name: "test_a", Status: harness.StatusPassed}})
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		ids = append(ids, run.ID)
		require.NoError(t, s.RecordRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
