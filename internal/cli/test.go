package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rewrite/internal/harness"
	"github.com/roach88/rewrite/internal/logging"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update      bool   // regenerate golden files
	Filter      string // scenario filter (glob pattern)
	GoldenDir   string // golden file directory; default is ../golden next to each scenario
	Parallelism int
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated" or empty
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run scenario files",
		Long: `Run harness scenarios: each case's input is evaluated and its output
compared with the expected text, then the scenario's trace assertions are
checked. Scenarios marked golden are also compared with their golden
trace file. Directories are searched for .yaml and .yml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  rewrite test ./testdata/scenarios
  rewrite test ./testdata/scenarios --filter "calc*"
  rewrite test ./testdata/scenarios/mixer.yaml --update
  rewrite test ./testdata/scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default: ../golden relative to each scenario)")
	cmd.Flags().IntVarP(&opts.Parallelism, "parallel", "p", harness.DefaultParallelism, "scenarios run at once")
	addEngineFlags(cmd.Flags())

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var scenarioFiles []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("scenario path not found: %s", p))
		}
		files, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("failed to find scenarios: %w", err))
		}
		scenarioFiles = append(scenarioFiles, files...)
	}

	if len(scenarioFiles) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Load everything first; a scenario that cannot be loaded is a failed
	// scenario, not a command error.
	result := TestResult{
		Scenarios: make([]ScenarioResult, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	var (
		scenarios []*harness.Scenario
		slots     []int
	)
	for i, file := range scenarioFiles {
		s, err := harness.LoadScenario(file)
		if err != nil {
			result.Scenarios[i] = ScenarioResult{
				Name:   filepath.Base(file),
				File:   file,
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			}
			continue
		}
		formatter.VerboseLog("Loaded scenario %s (%d case(s))", s.Name, len(s.Cases))
		scenarios = append(scenarios, s)
		slots = append(slots, i)
	}

	results, err := harness.RunAll(cmd.Context(), scenarios,
		harness.WithLogger(logging.Get("harness")),
		harness.WithParallelism(opts.Parallelism),
		harness.WithRulesetOptions(opts.rulesetOptions(cmd)...),
	)
	if err != nil && results == nil {
		return formatter.Fail(ExitFailure, ErrCodeScenario, err)
	}

	for j, s := range scenarios {
		sr := ScenarioResult{Name: s.Name, File: s.Path}
		res := results[j]
		if res == nil {
			sr.Errors = []string{fmt.Sprintf("execution failed: %v", scenarioError(err, s.Name))}
		} else {
			sr.Pass = res.Pass
			sr.Errors = res.Errors
			if s.Golden {
				checkScenarioGolden(opts, s, res, &sr)
			}
		}
		result.Scenarios[slots[j]] = sr
	}

	for _, sr := range result.Scenarios {
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.IsJSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(ErrCodeScenario, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputTestText(cmd.OutOrStdout(), result)
	}

	if result.Failed > 0 {
		return reportedExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed), nil)
	}
	return nil
}

// scenarioError picks the error RunAll reported for the named scenario.
func scenarioError(err error, name string) error {
	if err == nil {
		return errors.New("no result")
	}
	for _, e := range unwrapJoined(err) {
		if strings.Contains(e.Error(), "scenario "+name+":") {
			return e
		}
	}
	return err
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// checkScenarioGolden compares or rewrites the golden trace of s.
func checkScenarioGolden(opts *TestOptions, s *harness.Scenario, res *harness.Result, sr *ScenarioResult) {
	dir := goldenDir(opts.GoldenDir, s.Path)

	if err := harness.CheckGolden(dir, res, opts.Update); err != nil {
		sr.Pass = false
		if errors.Is(err, harness.ErrGoldenMismatch) {
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
			return
		}
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden file: %v", err))
		return
	}

	if opts.Update {
		sr.Golden = "updated"
	} else {
		sr.Golden = "match"
	}
}

// goldenDir returns the golden file directory for a scenario file.
func goldenDir(explicit, scenarioFile string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(filepath.Dir(scenarioFile), "..", "golden")
}

// findScenarioFiles returns path if it is a file, or all YAML scenario
// files below it if it is a directory.
func findScenarioFiles(path string, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})

	return files, err
}

// outputTestText renders test results as text.
func outputTestText(w io.Writer, result TestResult) {
	for _, s := range result.Scenarios {
		switch {
		case s.Pass && s.Golden == "updated":
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		case s.Pass:
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", s.Name)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
