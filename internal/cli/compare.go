package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"xlsxcmp/internal/compare"
	"xlsxcmp/internal/rules"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	MaxMismatches int
	Tolerance     float64
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <candidate> <reference>",
		Short: "Compare two spreadsheet packages",
		Long: `Compare a candidate package against a reference and report every
semantic divergence with its location: archive entry, element path, and
attribute.

Exit codes:
  0 - packages are equivalent
  1 - packages diverge (mismatch report printed)
  2 - command error (file missing, corrupt archive, bad rule file)

Examples:
  xlsxcmp compare out/test_bold01.xlsx fixtures/bold01.xlsx
  xlsxcmp compare a.xlsx b.xlsx --tolerance 1e-9
  xlsxcmp compare a.xlsx b.xlsx --rules extra.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxMismatches, "max-mismatches", compare.DefaultMaxMismatches, "mismatch report limit (negative for unlimited)")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0, "numeric comparison tolerance (0 = exact after canonicalization)")

	return cmd
}

func runCompare(opts *CompareOptions, candidate, reference string, cmd *cobra.Command) error {
	ruleSet, err := effectiveRules(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	result, err := compare.Compare(candidate, reference, compare.Options{
		Rules:         ruleSet,
		MaxMismatches: opts.MaxMismatches,
		Tolerance:     opts.Tolerance,
		Logger:        newLogger(opts.RootOptions),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "comparison failed", err)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Equal {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_NOT_EQUAL",
				Message: fmt.Sprintf("%d mismatch(es)", len(result.Mismatches)+result.Remaining),
			}
		}
		if err := writeJSON(cmd, resp); err != nil {
			return err
		}
	} else {
		if err := compare.Render(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if !result.Equal {
		// A mismatch is a normal comparison result; escalating it to a
		// nonzero exit is this command's responsibility, not the engine's.
		return NewExitError(ExitFailure, "packages are not equivalent")
	}
	return nil
}

// effectiveRules builds the rule set for a command: file rules (if any)
// consulted before the built-in defaults.
func effectiveRules(opts *RootOptions) (*rules.Set, error) {
	base := rules.Default()
	if opts.Rules == "" {
		return base, nil
	}
	extra, err := rules.Load(opts.Rules)
	if err != nil {
		return nil, err
	}
	return base.Merge(extra), nil
}
