package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rewrite/internal/ruleset"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Ruleset string
}

// EvalResult is the outcome of one input.
type EvalResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Kind   string `json:"kind"`
}

// EvalOutput is the JSON payload of eval and run.
type EvalOutput struct {
	Ruleset string            `json:"ruleset"`
	Results []EvalResult      `json:"results"`
	Vars    map[string]string `json:"vars,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <input>...",
		Short: "Evaluate inputs with a rule set",
		Long: `Run each argument through a rule set and print the result.

Arguments are evaluated in order against the same program, so variables
assigned by one argument are visible to the next.

Examples:
  rewrite eval "2 + 3 * 4"
  rewrite eval "x = 5" "x * 2"
  rewrite eval --ruleset builtin:mixer "two gin and tonic"
  rewrite eval --ruleset ./rules/arith.cue --trace "(1 + 2) * 3"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}
			return runEval(opts.RootOptions, opts.Ruleset, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Ruleset, "ruleset", "r", ruleset.BuiltinCalculator, "rule set: builtin name or .cue file")
	addEngineFlags(cmd.Flags())

	return cmd
}

func runEval(opts *RootOptions, ref string, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	prog, err := ruleset.Open(ref, opts.rulesetOptions(cmd)...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}
	formatter.VerboseLog("Opened rule set %s (%d stage(s))", prog.Name(), len(prog.Stages()))

	out, err := evaluateAll(cmd.Context(), prog, inputs)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeEvalFailed, err)
	}

	if formatter.IsJSON() {
		return formatter.Success(out)
	}
	for _, r := range out.Results {
		fmt.Fprintln(cmd.OutOrStdout(), r.Output)
	}
	return nil
}

// evaluateAll runs each input through prog. Inputs are NFC-normalized.
// The first runtime error stops evaluation.
func evaluateAll(ctx context.Context, prog *ruleset.Program, inputs []string) (*EvalOutput, error) {
	out := &EvalOutput{
		Ruleset: prog.Name(),
		Results: make([]EvalResult, 0, len(inputs)),
	}
	for _, in := range inputs {
		input := norm.NFC.String(in)
		res, err := prog.Evaluate(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("evaluating %q: %w", input, err)
		}
		out.Results = append(out.Results, EvalResult{
			Input:  input,
			Output: res.Text,
			Kind:   res.Kind.String(),
		})
	}
	if prog.Vars().Len() > 0 {
		out.Vars = prog.Vars().Snapshot()
	}
	return out, nil
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}
