package pattern

import (
	"fmt"
	"strings"
)

// Reusable fragments for building rule patterns.
const (
	Space = `\s*`
	Bool  = `(?:true|false)`
	Int   = `[-+]?\d+`
	Real  = `[-+]?\d+(?:\.\d+)?`
)

// List matches one or more items separated by sep with optional whitespace.
func List(item, sep string) string {
	return item + "(?:" + Space + sep + Space + item + ")*"
}

// CSList is List with a ';' separator.
func CSList(item string) string {
	return List(item, ";")
}

// AnyList renders items joined by sep and wrapped in open/close.
func AnyList[T any](items []T, sep, open, close string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		fmt.Fprint(&b, it)
	}
	b.WriteString(close)
	return b.String()
}

// Alternation renders a capturing group matching any of items.
func Alternation(items []string) string {
	return AnyList(items, "|", "(", ")")
}
