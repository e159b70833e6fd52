package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"xlsxcmp/internal/compare"
	"xlsxcmp/internal/rules"
)

// Status is the outcome class of one test case.
type Status string

const (
	// StatusPassed: generator ran and the packages are equivalent.
	StatusPassed Status = "passed"

	// StatusFailed: generator ran but the packages diverge.
	StatusFailed Status = "failed"

	// StatusSkipped: a required capability is missing.
	StatusSkipped Status = "skipped"

	// StatusGeneratorFailed: the generator exited nonzero or produced no
	// candidate file. Distinct from StatusFailed so triage can separate
	// "crashed" from "wrong output".
	StatusGeneratorFailed Status = "generator_failed"

	// StatusError: the comparison itself failed (missing fixture, corrupt
	// archive, bad per-case rules).
	StatusError Status = "error"
)

// GeneratorError describes a failed generator invocation.
type GeneratorError struct {
	Case      string
	Generator string
	ExitCode  int
	Output    string // combined stdout/stderr, for the report
	Err       error
}

func (e *GeneratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generator %s (case %s): %v", e.Generator, e.Case, e.Err)
	}
	return fmt.Sprintf("generator %s (case %s): exit code %d", e.Generator, e.Case, e.ExitCode)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}

// CaseResult is the outcome of running one test case.
type CaseResult struct {
	Name   string          `json:"name"`
	Status Status          `json:"status"`
	Skip   string          `json:"skip_reason,omitempty"`
	Result *compare.Result `json:"result,omitempty"`
	Err    error           `json:"-"`
	ErrMsg string          `json:"error,omitempty"`
}

// Runner executes test cases.
//
// A Runner is safe for concurrent use: every case opens its own archives
// and builds its own trees, and the rule set in Options is read-only.
type Runner struct {
	// BinDir holds the generator executables.
	BinDir string

	// WorkDir is where generators write candidate files; it is the
	// working directory of each generator invocation.
	WorkDir string

	// RefDir holds the read-only reference fixtures.
	RefDir string

	// Capabilities is the feature set this generator build supports.
	// Cases requiring an absent capability are skipped with a reason.
	Capabilities map[string]bool

	// Options configures each comparison. Per-case ignore rules are
	// merged in front of Options.Rules, never mutating it.
	Options compare.Options

	// Logger receives case lifecycle events. Nil discards.
	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// RunCase executes one case: capability check, generator invocation,
// comparison.
func (r *Runner) RunCase(ctx context.Context, tc TestCase) CaseResult {
	log := r.logger().With("case", tc.Name)

	if missing := r.missingCapability(tc); missing != "" {
		log.Info("case skipped", "requires", missing)
		return CaseResult{
			Name:   tc.Name,
			Status: StatusSkipped,
			Skip:   "requires capability: " + missing,
		}
	}

	if err := r.generate(ctx, tc); err != nil {
		log.Warn("generator failed", "error", err)
		return CaseResult{
			Name:   tc.Name,
			Status: StatusGeneratorFailed,
			Err:    err,
			ErrMsg: err.Error(),
		}
	}

	opts := r.Options
	extra, err := tc.ExtraRules()
	if err != nil {
		return CaseResult{Name: tc.Name, Status: StatusError, Err: err, ErrMsg: err.Error()}
	}
	if extra != nil {
		if opts.Rules == nil {
			opts.Rules = rules.Default()
		}
		opts.Rules = opts.Rules.Merge(extra)
	}

	candidate := filepath.Join(r.WorkDir, tc.CandidateName())
	reference := filepath.Join(r.RefDir, tc.ReferenceName())

	result, err := compare.Compare(candidate, reference, opts)
	if err != nil {
		log.Error("comparison error", "error", err)
		return CaseResult{Name: tc.Name, Status: StatusError, Err: err, ErrMsg: err.Error()}
	}

	status := StatusPassed
	if !result.Equal {
		status = StatusFailed
	}
	log.Info("case finished", "status", status, "mismatches", len(result.Mismatches))
	return CaseResult{Name: tc.Name, Status: status, Result: result}
}

// RunAll executes cases with up to jobs running concurrently, preserving
// manifest order in the returned slice. jobs < 1 means sequential.
func (r *Runner) RunAll(ctx context.Context, cases []TestCase, jobs int) []CaseResult {
	if jobs < 1 {
		jobs = 1
	}

	results := make([]CaseResult, len(cases))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup

	for i, tc := range cases {
		wg.Add(1)
		go func(i int, tc TestCase) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.RunCase(ctx, tc)
		}(i, tc)
	}

	wg.Wait()
	return results
}

// missingCapability returns the first required capability the runner does
// not have, or "" when the case can run.
func (r *Runner) missingCapability(tc TestCase) string {
	for _, cap := range tc.Requires {
		if !r.Capabilities[cap] {
			return cap
		}
	}
	return ""
}

// generate invokes the generator executable and verifies it produced the
// candidate file.
func (r *Runner) generate(ctx context.Context, tc TestCase) error {
	exe := filepath.Join(r.BinDir, tc.GeneratorName())

	cmd := exec.CommandContext(ctx, exe)
	cmd.Dir = r.WorkDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		genErr := &GeneratorError{
			Case:      tc.Name,
			Generator: tc.GeneratorName(),
			Output:    strings.TrimSpace(string(output)),
			Err:       err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			genErr.ExitCode = exitErr.ExitCode()
			genErr.Err = nil
		}
		return genErr
	}

	candidate := filepath.Join(r.WorkDir, tc.CandidateName())
	if _, err := os.Stat(candidate); err != nil {
		return &GeneratorError{
			Case:      tc.Name,
			Generator: tc.GeneratorName(),
			Output:    strings.TrimSpace(string(output)),
			Err:       fmt.Errorf("exit code 0 but no candidate file %s", tc.CandidateName()),
		}
	}
	return nil
}

func matchGlob(pattern, name string) (bool, error) {
	return path.Match(pattern, name)
}
