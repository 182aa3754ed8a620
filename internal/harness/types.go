package harness

import "github.com/roach88/rewrite/internal/engine"

// TraceEvent is one engine step recorded while running a case.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Engine string `json:"engine"`
	Depth  int    `json:"depth"`
	Kind   string `json:"kind"`
	Rule   string `json:"rule,omitempty"`
	Text   string `json:"text"`
}

func traceEvents(steps []engine.Step) []TraceEvent {
	events := make([]TraceEvent, len(steps))
	for i, s := range steps {
		events[i] = TraceEvent{
			Seq:    s.Seq,
			Engine: s.Engine,
			Depth:  s.Depth,
			Kind:   string(s.Kind),
			Rule:   s.Rule,
			Text:   s.Text,
		}
	}
	return events
}

// CaseResult is the outcome of one scenario case.
type CaseResult struct {
	Input  string       `json:"input"`
	Output string       `json:"output"`
	Kind   string       `json:"kind"`
	Pass   bool         `json:"pass"`
	Error  string       `json:"error,omitempty"`
	Trace  []TraceEvent `json:"trace"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// RunID is the run ID every engine run of the scenario was given.
	RunID string `json:"run_id"`

	// Pass is true if every case and assertion passed.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`

	// Errors contains case and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Vars is the variable table after the last case.
	Vars map[string]string `json:"vars,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario, runID string) *Result {
	return &Result{
		Scenario: scenario,
		RunID:    runID,
		Pass:     true,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Trace returns the events of every case in order.
func (r *Result) Trace() []TraceEvent {
	var all []TraceEvent
	for _, c := range r.Cases {
		all = append(all, c.Trace...)
	}
	return all
}
