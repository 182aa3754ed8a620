package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rewrite/internal/ruleset"
)

// ValidationError is one problem found in a rule set.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Stages int               `json:"stages,omitempty"`
	Rules  int               `json:"rules,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ruleset.cue>",
		Short: "Validate a rule set without running it",
		Long: `Load and compile a CUE rule set without evaluating anything.

Checks the file against the rule set schema, the requires constraint,
every pattern, CEL guard and expression, and every template. Errors are
reported with their CUE position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("rule set not found: %s", path))
	}

	rsOpts := opts.rulesetOptions(cmd)
	rs, err := ruleset.Load(path, rsOpts...)
	if err == nil {
		formatter.VerboseLog("Parsed %s: %d stage(s), %d rule(s)", path, len(rs.Stages), rs.RuleCount())
		_, err = rs.Compile(rsOpts...)
	}
	if err != nil {
		return outputValidationErrors(formatter, []ValidationError{toValidationError(err)})
	}

	result := ValidationResult{Valid: true, Stages: len(rs.Stages), Rules: rs.RuleCount()}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%d stage(s), %d rule(s))\n", path, result.Stages, result.Rules)
	return nil
}

// toValidationError flattens a load or compile error, keeping its CUE
// position when there is one.
func toValidationError(err error) ValidationError {
	var cErr *ruleset.CompileError
	if !errors.As(err, &cErr) {
		return ValidationError{Field: "ruleset", Message: err.Error()}
	}
	ve := ValidationError{Field: cErr.Field, Message: cErr.Message}
	if cErr.Pos.IsValid() {
		ve.File = cErr.Pos.Filename()
		ve.Line = cErr.Pos.Line()
		ve.Column = cErr.Pos.Column()
	}
	return ve
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	exitErr := reportedExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)), nil)

	if formatter.IsJSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Failure(ErrCodeInvalid, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", err.File, err.Line, err.Column)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Field, err.Message)
	}

	return exitErr
}
