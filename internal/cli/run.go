package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <ruleset> [input...]",
		Short: "Run a rule set over inputs",
		Long: `Run a declarative rule set over the given inputs, or over the lines of
standard input when no inputs are given. Blank lines are skipped.

Examples:
  rewrite run ./rules/arith.cue "2 + 3 * 4"
  cat exprs.txt | rewrite run ./rules/arith.cue
  rewrite run builtin:calculator --format json "1 + 1"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}

			inputs := args[1:]
			if len(inputs) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
				}
				inputs = lines
			}
			return runEval(rootOpts, args[0], inputs, cmd)
		},
	}

	addEngineFlags(cmd.Flags())

	return cmd
}
