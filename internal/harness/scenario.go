package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rewrite/internal/ruleset"
)

// DefaultRunID is used when a scenario does not set run_id.
const DefaultRunID = "test-run"

// Scenario is a list of input/expected-output cases run against one rule
// set, with optional assertions over the recorded trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Ruleset is "builtin:calculator", "builtin:mixer" or the path of a
	// .cue rule set, relative to the scenario file.
	Ruleset string `yaml:"ruleset"`

	// RunID is the fixed run ID given to every engine run.
	RunID string `yaml:"run_id,omitempty"`

	// Cases run in order against a single program, so variables set by
	// one case are visible to the next.
	Cases []Case `yaml:"cases"`

	// Assertions validate the trace and the final variables.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden compares the trace against testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Case is one input with its expected outcome.
type Case struct {
	Input string `yaml:"input"`

	// Expect is the expected output text. Nil skips the comparison.
	Expect *string `yaml:"expect,omitempty"`

	// Fatal asserts that evaluation stopped with a fatal result.
	Fatal bool `yaml:"fatal,omitempty"`
}

// Assertion validates the trace or the final variables.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_vars.
	Type string `yaml:"type"`

	// Rule is the rule name (trace_contains, trace_count).
	Rule string `yaml:"rule,omitempty"`

	// Rules is the expected firing order (trace_order).
	Rules []string `yaml:"rules,omitempty"`

	// Count is the expected number of firings (trace_count).
	Count int `yaml:"count,omitempty"`

	// Vars are expected variable values (final_vars). Subset match.
	Vars map[string]string `yaml:"vars,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalVars     = "final_vars"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and a relative rule set path is resolved against the scenario
// file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.Path = path

	if !strings.HasPrefix(scenario.Ruleset, ruleset.BuiltinPrefix) && !filepath.IsAbs(scenario.Ruleset) {
		scenario.Ruleset = filepath.Join(filepath.Dir(path), scenario.Ruleset)
		if _, err := os.Stat(scenario.Ruleset); err != nil {
			return nil, fmt.Errorf("invalid scenario: rule set not found: %s", scenario.Ruleset)
		}
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.RunID == "" {
		scenario.RunID = DefaultRunID
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.Ruleset == "" {
		return fmt.Errorf("ruleset is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, c := range s.Cases {
		if c.Expect == nil && !c.Fatal {
			return fmt.Errorf("cases[%d]: expect or fatal is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalVars:
		if len(a.Vars) == 0 {
			return fmt.Errorf("assertions[%d]: vars is required for final_vars", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
