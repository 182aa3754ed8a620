package engine

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// StepKind distinguishes the trace header from rewrite steps.
type StepKind string

const (
	// StepStart is emitted once per execution with the input text.
	StepStart StepKind = "start"

	// StepRewrite is emitted after every change with the full new text.
	StepRewrite StepKind = "rewrite"
)

// Step is one trace event.
type Step struct {
	RunID     string   `json:"run_id"`
	Seq       int64    `json:"seq"`
	Engine    string   `json:"engine,omitempty"`
	Depth     int      `json:"depth"`
	Kind      StepKind `json:"kind"`
	Rule      string   `json:"rule,omitempty"`
	RuleIndex int      `json:"rule_index"`
	Text      string   `json:"text"`
}

// Sink receives trace steps. Sinks must not retain the engine or call back
// into it.
type Sink interface {
	OnStep(step Step)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(step Step)

// OnStep calls f(step).
func (f SinkFunc) OnStep(step Step) { f(step) }

const traceRule = "-----------------------------------------------------------"

type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// WriterSink returns a sink that renders steps as plain text: a banner with
// the input, then one line per rewrite. Nested executions are indented by
// depth.
func WriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) OnStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indent := strings.Repeat("  ", step.Depth)
	if step.Kind == StepStart {
		fmt.Fprintf(s.w, "%s----------------------Execution Trace----------------------\n", indent)
		fmt.Fprintf(s.w, "%s%s\n", indent, step.Text)
		fmt.Fprintf(s.w, "%s%s\n", indent, traceRule)
		return
	}
	fmt.Fprintf(s.w, "%s%s\n", indent, step.Text)
}

// Recorder is a Sink that keeps every step in memory.
type Recorder struct {
	mu    sync.Mutex
	steps []Step
}

// OnStep appends the step.
func (r *Recorder) OnStep(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Texts returns the Text of each recorded step.
func (r *Recorder) Texts() []string {
	steps := r.Steps()
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Text
	}
	return out
}

// Reset drops recorded steps.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
}
