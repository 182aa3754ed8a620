// Package pattern implements the pattern matcher used by rewrite rules.
//
// A Pattern wraps a compiled regular expression. FindAll always searches the
// whole text from offset 0 and returns every non-overlapping occurrence in
// left-to-right order; each Match carries its captured sub-spans in the order
// their groups appear in the pattern source.
//
// Two regex engines are available behind the same interface:
//
//   - EngineBacktrack (default) uses github.com/dlclark/regexp2. It supports
//     backtracking constructs (lookaround, backreferences) and compiles with
//     free-spacing and multiline mode on by default, so literal whitespace in a
//     pattern source is ignored and ^/$ anchor at line boundaries.
//   - EngineRE2 uses the standard library's linear-time RE2 engine. It has no
//     free-spacing mode, so patterns written for EngineBacktrack that rely on
//     ignored whitespace must be rewritten without it.
//
// Spans are byte offsets into the searched text regardless of engine.
//
// # Splicing
//
// SpliceFirst replaces exactly one occurrence, the first match, with a
// template whose $0..$9 tokens name the match's captures (index 0 is the
// first group). Later occurrences are left for a subsequent pass.
package pattern
