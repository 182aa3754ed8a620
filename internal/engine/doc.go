// Package engine implements the rewrite engine.
//
// An Engine holds an ordered list of rules. Executing an engine on a text
// repeatedly tries each rule in declaration order and replaces the text with
// the rule's output whenever the rule reports a change. Execution stops when
// a full pass produces no change or when a rule reports a fatal condition.
//
// ARCHITECTURE:
//
// Rules:
// A Rule is either patterned or manual. A patterned rule compiles a regular
// expression (see package pattern), finds every non-overlapping match in the
// current text and hands them to its action. A changed result from the action
// is spliced over the FIRST match only. A manual rule receives a single
// synthetic match spanning the whole text, and its changed result replaces
// the text outright.
//
// Restart:
// With restart enabled (the default) the cursor returns to the first rule
// after every change, so earlier rules always get priority. With restart
// disabled the cursor advances to the next rule.
//
// Recursion:
// Actions receive a *Scope. Scope.Execute re-enters the same engine on a
// derived text, which is how nested constructs (parenthesized expressions,
// function arguments) are reduced before the outer rule consumes them.
// Recursive rules expand their own output the same way before splicing.
//
// Termination:
// The rule language guarantees nothing about termination. Every run carries a
// step quota shared across recursion levels and a maximum recursion depth.
// Cycle detection can be enabled to abort as soon as a (text, cursor) state
// repeats. Exceeding any limit aborts the run with a *RuntimeError.
//
// Tracing:
// When trace is on, the engine emits the input text and then the full text
// after every change to a Sink. Fatal results bypass the trace.
//
// Pipelines:
// A Pipeline threads a text through several engines in order. A fatal result
// from one stage is passed on to the next stage as ordinary text.
package engine
