// Package ruleset loads declarative rule sets written in CUE and compiles
// them into engine pipelines.
//
// A rule set is an ordered list of stages. Each stage becomes one
// engine.Engine and the stages run in order as an engine.Pipeline:
//
//	requires: ">= 0.1.0"
//	stages: [{
//		name: "arith"
//		rules: [{
//			name:    "add"
//			pattern: #"(\d+)\s*\+\s*(\d+)"#
//			expr:    "string(int(captures[0]) + int(captures[1]))"
//		}]
//	}]
//
// A rule has exactly one action:
//
//   - replace: a back-reference template ($0 is the first capture)
//   - expr: a CEL expression producing the replacement
//   - template: a text/template with sprout functions
//   - fatal: a diagnostic that stops evaluation ($n expanded)
//
// An optional CEL "when" guard vetoes a match when it evaluates to false.
// CEL programs see match, captures, text and vars; templates see .Match,
// .Captures, .Text and .Vars.
//
// Rules without a pattern are manual: they see the whole working text and
// their result replaces it.
package ruleset
