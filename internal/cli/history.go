package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xlsxcmp/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ResultsDB string
	Run       string
	Case      string
	Limit     int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query recorded harness runs",
		Long: `List runs recorded by "xlsxcmp test --results-db", or drill into one
run's cases, or trace a single case's status across runs.

Examples:
  xlsxcmp history --results-db runs.db
  xlsxcmp history --results-db runs.db --run 4f9d...
  xlsxcmp history --results-db runs.db --case test_chart_bar01`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ResultsDB, "results-db", "", "SQLite results database (required)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the cases of one run")
	cmd.Flags().StringVar(&opts.Case, "case", "", "show one case's status across runs")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return")
	cmd.MarkFlagRequired("results-db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	db, err := store.Open(opts.ResultsDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open results database", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	switch {
	case opts.Run != "":
		cases, err := db.ListCases(ctx, opts.Run)
		if err != nil {
			return WrapExitError(ExitCommandError, "query failed", err)
		}
		if opts.Format == "json" {
			return writeJSON(cmd, CLIResponse{Status: "ok", Data: cases})
		}
		for _, c := range cases {
			fmt.Fprintf(w, "%-16s %-40s mismatches=%d", c.Status, c.Name, c.MismatchCount)
			if c.Detail != "" {
				fmt.Fprintf(w, " (%s)", c.Detail)
			}
			fmt.Fprintln(w)
		}
		return nil

	case opts.Case != "":
		hist, err := db.FailureHistory(ctx, opts.Case, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "query failed", err)
		}
		if opts.Format == "json" {
			return writeJSON(cmd, CLIResponse{Status: "ok", Data: hist})
		}
		for _, c := range hist {
			fmt.Fprintf(w, "%-16s mismatches=%d", c.Status, c.MismatchCount)
			if c.Detail != "" {
				fmt.Fprintf(w, " (%s)", c.Detail)
			}
			fmt.Fprintln(w)
		}
		return nil

	default:
		runs, err := db.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "query failed", err)
		}
		if opts.Format == "json" {
			return writeJSON(cmd, CLIResponse{Status: "ok", Data: runs})
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %s  %s  %d/%d passed (%d failed, %d genfail, %d err, %d skipped)\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Manifest,
				r.Passed, r.Total, r.Failed, r.GeneratorFailed, r.Errored, r.Skipped)
		}
		return nil
	}
}
