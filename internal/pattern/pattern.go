package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Span is a half-open byte range [Start, End) into a source text.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("%d..<%d", s.Start, s.End) }

// Capture is an immutable view of one captured group.
type Capture struct {
	Span Span
	Text string
}

func (c Capture) String() string { return fmt.Sprintf("%s :: %s", c.Span, c.Text) }

// Float parses the capture as a number, returning 0 when it is not one.
func (c Capture) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	if err != nil {
		return 0
	}
	return f
}

// Int parses the capture as an integer, returning 0 when it is not one.
func (c Capture) Int() int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Text))
	if err != nil {
		return int(c.Float())
	}
	return n
}

// Bool reports whether the capture is exactly "true".
func (c Capture) Bool() bool { return c.Text == "true" }

// Split splits the capture text on sep.
func (c Capture) Split(sep string) []string { return strings.Split(c.Text, sep) }

// Match is one occurrence of a pattern.
type Match struct {
	Span     Span
	Text     string
	Captures []Capture
}

// Whole returns the synthetic match used by manual rules: it spans the
// entire text and has no captures.
func Whole(text string) Match {
	return Match{Span: Span{Start: 0, End: len(text)}, Text: text}
}

// Capture returns capture i, or false when the match has fewer captures.
func (m Match) Capture(i int) (Capture, bool) {
	if i < 0 || i >= len(m.Captures) {
		return Capture{}, false
	}
	return m.Captures[i], true
}

// Group returns the text of capture i, or "" when absent.
func (m Match) Group(i int) string {
	c, _ := m.Capture(i)
	return c.Text
}

// CaptureTexts returns the capture texts in order.
func (m Match) CaptureTexts() []string {
	out := make([]string, len(m.Captures))
	for i, c := range m.Captures {
		out[i] = c.Text
	}
	return out
}

func (m Match) String() string { return fmt.Sprintf("%s :: %s", m.Span, m.Text) }

// Pattern is a compiled pattern source.
type Pattern struct {
	source string
	opts   Options
	impl   matcher
}

// Compile compiles source with the package defaults overridden by opts.
// An invalid source yields a *CompileError.
func Compile(source string, opts ...Option) (*Pattern, error) {
	o := Defaults()
	for _, opt := range opts {
		opt(&o)
	}
	impl, err := compileMatcher(source, o)
	if err != nil {
		return nil, &CompileError{Source: source, Engine: o.Engine, Err: err}
	}
	return &Pattern{source: source, opts: o, impl: impl}, nil
}

// MustCompile is like Compile but panics on error. Use it for static rule
// tables where an invalid pattern is a programming error.
func MustCompile(source string, opts ...Option) *Pattern {
	p, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern source.
func (p *Pattern) String() string { return p.source }

// Options returns the options the pattern was compiled with.
func (p *Pattern) Options() Options { return p.opts }

// NumCaptures returns the number of capturing groups.
func (p *Pattern) NumCaptures() int { return p.impl.numSubexp() }

// FindAll returns every non-overlapping occurrence of p in text, left to
// right, or nil when there is none. A capture is left out of a match's
// capture list when its group did not participate or when it would start at
// or beyond the end of text, so later captures shift down in that case.
func (p *Pattern) FindAll(text string) ([]Match, error) {
	raws, err := p.impl.findAll(text)
	if err != nil {
		return nil, &MatchError{Source: p.source, Err: err}
	}
	if len(raws) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(raws))
	for _, rm := range raws {
		m := Match{
			Span: Span{Start: rm.start, End: rm.end},
			Text: text[rm.start:rm.end],
		}
		for _, g := range rm.groups {
			if g[0] < 0 || g[0] >= len(text) {
				continue
			}
			m.Captures = append(m.Captures, Capture{
				Span: Span{Start: g[0], End: g[1]},
				Text: text[g[0]:g[1]],
			})
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// MatchString reports whether text contains an occurrence of p.
func (p *Pattern) MatchString(text string) bool {
	ms, err := p.FindAll(text)
	return err == nil && len(ms) > 0
}
