package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xlsxcmp/internal/compare"
	"xlsxcmp/internal/harness"
	"xlsxcmp/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	BinDir       string
	WorkDir      string
	RefDir       string
	Filter       string
	Jobs         int
	Capabilities []string
	ResultsDB    string
	Tolerance    float64
}

// TestResult holds the overall harness outcome.
type TestResult struct {
	Cases           []harness.CaseResult `json:"cases"`
	Passed          int                  `json:"passed"`
	Failed          int                  `json:"failed"`
	Skipped         int                  `json:"skipped"`
	GeneratorFailed int                  `json:"generator_failed"`
	Errored         int                  `json:"errored"`
	Total           int                  `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <manifest>",
		Short: "Run functional test cases",
		Long: `Run the functional suite: for each case in the manifest, invoke its
generator executable, then compare the candidate package it wrote against
the reference fixture.

Cases are independent and run in parallel (--jobs). A generator that exits
nonzero or produces no file is reported as generator_failed, distinct from
a content mismatch.

Exit codes:
  0 - all cases passed (skipped cases do not fail the run)
  1 - one or more cases failed
  2 - command error (manifest missing, bad flags, etc.)

Examples:
  xlsxcmp test cases.yaml --bin-dir ./bin --ref-dir ./fixtures
  xlsxcmp test cases.yaml --filter "test_chart_*" --jobs 8
  xlsxcmp test cases.yaml --capability legend-rendering --results-db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BinDir, "bin-dir", ".", "directory holding generator executables")
	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", ".", "working directory generators write candidates into")
	cmd.Flags().StringVar(&opts.RefDir, "ref-dir", ".", "directory holding reference fixtures")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")
	cmd.Flags().IntVar(&opts.Jobs, "jobs", 1, "number of cases to run concurrently")
	cmd.Flags().StringArrayVar(&opts.Capabilities, "capability", nil, "capability flag the generator build supports (repeatable)")
	cmd.Flags().StringVar(&opts.ResultsDB, "results-db", "", "record results into this SQLite database")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "numeric comparison tolerance")

	return cmd
}

func runTests(opts *TestOptions, manifestPath string, cmd *cobra.Command) error {
	manifest, err := harness.LoadManifest(manifestPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	cases, err := manifest.Filter(opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad filter", err)
	}
	if len(cases) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd, CLIResponse{Status: "ok", Data: TestResult{Cases: []harness.CaseResult{}}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No cases matched.")
		return nil
	}

	ruleSet, err := effectiveRules(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	caps := make(map[string]bool, len(opts.Capabilities))
	for _, c := range opts.Capabilities {
		caps[c] = true
	}

	runner := &harness.Runner{
		BinDir:       opts.BinDir,
		WorkDir:      opts.WorkDir,
		RefDir:       opts.RefDir,
		Capabilities: caps,
		Options: compare.Options{
			Rules:     ruleSet,
			Tolerance: opts.Tolerance,
		},
		Logger: newLogger(opts.RootOptions),
	}

	results := runner.RunAll(cmd.Context(), cases, opts.Jobs)

	if opts.ResultsDB != "" {
		db, err := store.Open(opts.ResultsDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results database", err)
		}
		defer db.Close()
		if err := db.RecordRun(cmd.Context(), store.NewRun(manifestPath, results)); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	summary := summarize(results)
	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed+summary.GeneratorFailed+summary.Errored > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_TEST_FAILED",
				Message: fmt.Sprintf("%d case(s) did not pass", summary.Failed+summary.GeneratorFailed+summary.Errored),
			}
		}
		if err := writeJSON(cmd, resp); err != nil {
			return err
		}
		return exitForSummary(summary)
	}

	printResults(cmd, results, summary)
	return exitForSummary(summary)
}

func summarize(results []harness.CaseResult) TestResult {
	summary := TestResult{Cases: results, Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case harness.StatusPassed:
			summary.Passed++
		case harness.StatusFailed:
			summary.Failed++
		case harness.StatusSkipped:
			summary.Skipped++
		case harness.StatusGeneratorFailed:
			summary.GeneratorFailed++
		case harness.StatusError:
			summary.Errored++
		}
	}
	return summary
}

func printResults(cmd *cobra.Command, results []harness.CaseResult, summary TestResult) {
	w := cmd.OutOrStdout()
	for _, r := range results {
		switch r.Status {
		case harness.StatusPassed:
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		case harness.StatusSkipped:
			fmt.Fprintf(w, "- %s (%s)\n", r.Name, r.Skip)
		case harness.StatusFailed:
			fmt.Fprintf(w, "✗ %s\n", r.Name)
			for _, m := range r.Result.Mismatches {
				fmt.Fprintf(w, "  %s\n", m.String())
			}
			if r.Result.Remaining > 0 {
				fmt.Fprintf(w, "  ... %d more mismatch(es)\n", r.Result.Remaining)
			}
		default:
			fmt.Fprintf(w, "✗ %s (%s)\n", r.Name, strings.ReplaceAll(string(r.Status), "_", " "))
			if r.ErrMsg != "" {
				fmt.Fprintf(w, "  %s\n", r.ErrMsg)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d generator failures, %d errors, %d skipped, %d total\n",
		summary.Passed, summary.Failed, summary.GeneratorFailed, summary.Errored, summary.Skipped, summary.Total)
}

func exitForSummary(summary TestResult) error {
	bad := summary.Failed + summary.GeneratorFailed + summary.Errored
	if bad > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) did not pass", bad))
	}
	return nil
}
