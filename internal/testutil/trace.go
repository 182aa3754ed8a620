package testutil

import "github.com/roach88/rewrite/internal/engine"

// Firings returns the names of the rules that rewrote the text, in trace
// order.
func Firings(steps []engine.Step) []string {
	var rules []string
	for _, s := range steps {
		if s.Kind == engine.StepRewrite {
			rules = append(rules, s.Rule)
		}
	}
	return rules
}

// RunIDs returns the distinct run IDs seen in steps, in first-seen order.
func RunIDs(steps []engine.Step) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range steps {
		if !seen[s.RunID] {
			seen[s.RunID] = true
			ids = append(ids, s.RunID)
		}
	}
	return ids
}

// AtDepth keeps the steps emitted at the given nesting depth.
func AtDepth(steps []engine.Step, depth int) []engine.Step {
	var out []engine.Step
	for _, s := range steps {
		if s.Depth == depth {
			out = append(out, s)
		}
	}
	return out
}
