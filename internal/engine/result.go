package engine

import "fmt"

// Kind tags the outcome of a rule action or an engine execution.
type Kind int

const (
	// KindUnchanged means the input was left as is.
	KindUnchanged Kind = iota

	// KindChanged means the text was rewritten.
	KindChanged

	// KindFatal means evaluation must stop. Text carries the diagnostic.
	KindFatal
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnchanged:
		return "unchanged"
	case KindChanged:
		return "changed"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of an action or an execution.
//
// For actions, Text is ignored when Kind is KindUnchanged. For executions,
// Text always holds the final text (or the diagnostic when fatal).
type Result struct {
	Kind Kind
	Text string

	// literal is set by Literal: the text is spliced without expanding
	// back-references.
	literal bool
}

// Unchanged reports that an action declined to rewrite.
func Unchanged() Result {
	return Result{Kind: KindUnchanged}
}

// Changed reports a rewrite to text.
func Changed(text string) Result {
	return Result{Kind: KindChanged, Text: text}
}

// Literal reports a rewrite to text that is already final. Back-reference
// tokens in it are spliced as plain text, so actions that expand captures
// themselves use Literal.
func Literal(text string) Result {
	return Result{Kind: KindChanged, Text: text, literal: true}
}

// Fatal stops the enclosing execution with a diagnostic message.
func Fatal(message string) Result {
	return Result{Kind: KindFatal, Text: message}
}

// Fatalf is Fatal with formatting.
func Fatalf(format string, args ...any) Result {
	return Fatal(fmt.Sprintf(format, args...))
}

// IsChanged reports whether the result carries a rewrite.
func (r Result) IsChanged() bool { return r.Kind == KindChanged }

// IsFatal reports whether the result is a fatal condition.
func (r Result) IsFatal() bool { return r.Kind == KindFatal }

// String renders the result for logs and test failures.
func (r Result) String() string {
	return fmt.Sprintf("%s(%q)", r.Kind, r.Text)
}
