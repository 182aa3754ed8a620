package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/rewrite/internal/ruleset"
)

// RuleRow describes one rule of a program.
type RuleRow struct {
	Stage     string   `json:"stage"`
	Index     int      `json:"index"`
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Recursive bool     `json:"recursive"`
	Keywords  []string `json:"keywords,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// RulesOutput is the JSON payload of the rules command.
type RulesOutput struct {
	Ruleset string    `json:"ruleset"`
	Rules   []RuleRow `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <ruleset>",
		Short: "List the stages and rules of a rule set",
		Long: `Print the rules of a rule set in evaluation order, one row per rule.

Examples:
  rewrite rules builtin:calculator
  rewrite rules ./rules/arith.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}
			return runRules(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRules(opts *RootOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	prog, err := ruleset.Open(ref, opts.rulesetOptions(cmd)...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}

	out := RulesOutput{Ruleset: prog.Name(), Rules: ruleRows(prog)}
	if formatter.IsJSON() {
		return formatter.Success(out)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "#", "Name", "Kind", "Recursive", "Keywords", "Pattern"})
	for _, r := range out.Rules {
		recursive := ""
		if r.Recursive {
			recursive = "yes"
		}
		t.AppendRow(table.Row{r.Stage, r.Index, r.Name, r.Kind, recursive, strings.Join(r.Keywords, " "), r.Pattern})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d rules)\n", len(out.Rules))
	return nil
}

func ruleRows(prog *ruleset.Program) []RuleRow {
	var rows []RuleRow
	for _, stage := range prog.Stages() {
		for i, rule := range stage.Rules() {
			row := RuleRow{
				Stage:     stage.Name(),
				Index:     i,
				Name:      rule.Name(),
				Kind:      rule.Kind().String(),
				Recursive: rule.IsRecursive(),
				Keywords:  rule.Keywords(),
			}
			if p := rule.Pattern(); p != nil {
				row.Pattern = p.String()
			}
			rows = append(rows, row)
		}
	}
	return rows
}
