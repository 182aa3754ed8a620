package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/rewrite/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the rule firings to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRule firings:\n")
	n := 0
	for _, event := range e.Trace {
		if event.Kind == string(engine.StepRewrite) {
			n++
			fmt.Fprintf(&buf, "  [%d] %s -> %q\n", n, event.Rule, event.Text)
		}
	}

	return buf.String()
}

func firings(trace []TraceEvent) []string {
	var rules []string
	for _, event := range trace {
		if event.Kind == string(engine.StepRewrite) {
			rules = append(rules, event.Rule)
		}
	}
	return rules
}

// assertTraceContains checks that the rule fired at least once.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, rule := range firings(trace) {
		if rule == a.Rule {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("rule %s fired", a.Rule),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first firings of the rules occur in
// the listed order. Other firings may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, rule := range firings(trace) {
		if _, seen := positions[rule]; !seen {
			positions[rule] = i + 1
		}
	}

	for _, rule := range a.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all rules fired: %v", a.Rules),
				Actual:   fmt.Sprintf("missing rule: %s", rule),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Rules); i++ {
		prev, curr := a.Rules[i-1], a.Rules[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("rules in order: %v", a.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the rule fired exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, rule := range firings(trace) {
		if rule == a.Rule {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d firings of %s", a.Count, a.Rule),
			Actual:   fmt.Sprintf("%d firings", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalVars checks the expected variables against the table after
// the last case.
func assertFinalVars(vars map[string]string, a Assertion) error {
	names := make([]string, 0, len(a.Vars))
	for name := range a.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var mismatches []string
	for _, name := range names {
		want := a.Vars[name]
		got, ok := vars[name]
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("%s: unset (want %q)", name, want))
		case got != want:
			mismatches = append(mismatches, fmt.Sprintf("%s: %q (want %q)", name, got, want))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalVars,
			Expected: fmt.Sprintf("vars %v", a.Vars),
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	trace := result.Trace()
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		case AssertFinalVars:
			err = assertFinalVars(result.Vars, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
