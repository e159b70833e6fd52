package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRulesCommand creates the rules command.
//
// Primarily a validation tool: loading a rule file through the same path
// the other commands use surfaces schema errors before a CI run does.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and print the effective ignore-rule set",
		Long: `Print the effective rule set: rules from --rules (if given) followed
by the built-in defaults. Rules are evaluated in this order, first match
wins.

Exit codes:
  0 - rule set is valid
  2 - rule file failed to load or validate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}
	return cmd
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
	set, err := effectiveRules(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd, CLIResponse{Status: "ok", Data: set.Rules()})
	}

	w := cmd.OutOrStdout()
	for i, r := range set.Rules() {
		fmt.Fprintf(w, "%3d. action=%-4s", i, r.Action)
		if r.Entry != "" {
			fmt.Fprintf(w, " entry=%q", r.Entry)
		}
		if r.Element != "" {
			fmt.Fprintf(w, " element=%q", r.Element)
		}
		if r.Attr != "" {
			fmt.Fprintf(w, " attr=%q", r.Attr)
		}
		if r.Key != "" {
			fmt.Fprintf(w, " key=%s", r.Key)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d rule(s)\n", set.Len())
	return nil
}
