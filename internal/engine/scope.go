package engine

import "context"

// run carries state shared by every recursion level of one top-level
// Evaluate call.
type run struct {
	ctx    context.Context
	engine *Engine
	id     string
	quota  *QuotaEnforcer
	clock  *Clock
	err    error
}

// abort records the first error that terminates the run. Later errors are
// dropped so the root cause is the one reported.
func (r *run) abort(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Scope is the handle an action receives for the current execution.
//
// It gives access to the engine's variables and lets the action re-enter
// the engine on a derived text. A Scope is only valid for the duration of
// the action call that received it.
type Scope struct {
	run   *run
	depth int
	text  string
}

// Execute runs the engine that owns this scope on text, one recursion
// level deeper, and returns the outcome.
//
// A fatal result is returned as is. If the run is aborted (step quota,
// depth limit, cycle, cancellation) the result is Unchanged with text as
// its Text, and the abort is reported from the top-level Evaluate.
func (s *Scope) Execute(text string) Result {
	if s.aborted() {
		return Result{Kind: KindUnchanged, Text: text}
	}
	return s.run.engine.loop(s.run, s.depth+1, text)
}

// Vars returns the engine's variable table.
func (s *Scope) Vars() *Vars {
	return s.run.engine.vars
}

// Context returns the context of the top-level Evaluate call.
func (s *Scope) Context() context.Context {
	return s.run.ctx
}

// RunID identifies the top-level Evaluate call this scope belongs to.
func (s *Scope) RunID() string {
	return s.run.id
}

// Text returns the working text the current rule is being applied to.
func (s *Scope) Text() string {
	return s.text
}

// Depth returns the recursion depth. The top-level execution is depth 0.
func (s *Scope) Depth() int {
	return s.depth
}

func (s *Scope) abort(err error) {
	s.run.abort(err)
}

func (s *Scope) aborted() bool {
	return s.run.err != nil
}
