package pattern

import (
	"fmt"
	stdlib "regexp"
	"time"

	"github.com/dlclark/regexp2"
)

// Engine names a regex implementation.
type Engine string

const (
	// EngineBacktrack is github.com/dlclark/regexp2.
	EngineBacktrack Engine = "regexp2"
	// EngineRE2 is the standard library regexp package.
	EngineRE2 Engine = "re2"
)

// ParseEngine maps a configuration value to an Engine.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case EngineBacktrack, EngineRE2:
		return Engine(name), nil
	case "":
		return EngineBacktrack, nil
	default:
		return "", fmt.Errorf("unknown regex engine %q (want %s or %s)", name, EngineBacktrack, EngineRE2)
	}
}

// Options controls how a pattern source is compiled.
type Options struct {
	Engine Engine

	// FreeSpacing ignores unescaped whitespace in the source.
	// Only honoured by EngineBacktrack.
	FreeSpacing bool

	// Multiline makes ^ and $ match at line boundaries.
	Multiline bool

	IgnoreCase bool

	// Timeout bounds a single search. Zero means no limit.
	// Only honoured by EngineBacktrack; RE2 runs in linear time.
	Timeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithEngine selects the regex engine.
func WithEngine(e Engine) Option {
	return func(o *Options) { o.Engine = e }
}

// WithTimeout bounds each search.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithIgnoreCase enables case-insensitive matching.
func WithIgnoreCase() Option {
	return func(o *Options) { o.IgnoreCase = true }
}

// WithLiteralSpacing disables free-spacing mode so whitespace in the source
// is matched literally.
func WithLiteralSpacing() Option {
	return func(o *Options) { o.FreeSpacing = false }
}

// Defaults returns the options applied before per-call options: the
// backtracking engine in free-spacing, multiline mode.
func Defaults() Options {
	return Options{
		Engine:      EngineBacktrack,
		FreeSpacing: true,
		Multiline:   true,
	}
}

// rawMatch holds byte offsets for one occurrence. groups[i] is {-1, -1} when
// group i+1 did not participate.
type rawMatch struct {
	start, end int
	groups     [][2]int
}

// matcher is satisfied by both engine adapters.
type matcher interface {
	findAll(text string) ([]rawMatch, error)
	numSubexp() int
}

func compileMatcher(source string, o Options) (matcher, error) {
	switch o.Engine {
	case EngineRE2:
		prefix := ""
		if o.Multiline {
			prefix += "m"
		}
		if o.IgnoreCase {
			prefix += "i"
		}
		expr := source
		if prefix != "" {
			expr = "(?" + prefix + ")" + source
		}
		re, err := stdlib.Compile(expr)
		if err != nil {
			return nil, err
		}
		return re2Matcher{re: re}, nil

	case EngineBacktrack, "":
		var flags regexp2.RegexOptions
		if o.FreeSpacing {
			flags |= regexp2.IgnorePatternWhitespace
		}
		if o.Multiline {
			flags |= regexp2.Multiline
		}
		if o.IgnoreCase {
			flags |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(source, flags)
		if err != nil {
			return nil, err
		}
		if o.Timeout > 0 {
			re.MatchTimeout = o.Timeout
		}
		return backtrackMatcher{re: re}, nil

	default:
		return nil, fmt.Errorf("unknown regex engine %q", o.Engine)
	}
}

type re2Matcher struct{ re *stdlib.Regexp }

func (m re2Matcher) numSubexp() int { return m.re.NumSubexp() }

func (m re2Matcher) findAll(text string) ([]rawMatch, error) {
	locs := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, nil
	}
	out := make([]rawMatch, 0, len(locs))
	for _, loc := range locs {
		rm := rawMatch{start: loc[0], end: loc[1]}
		for g := 2; g+1 < len(loc); g += 2 {
			rm.groups = append(rm.groups, [2]int{loc[g], loc[g+1]})
		}
		out = append(out, rm)
	}
	return out, nil
}

type backtrackMatcher struct{ re *regexp2.Regexp }

func (m backtrackMatcher) numSubexp() int { return len(m.re.GetGroupNumbers()) - 1 }

// findAll converts regexp2's rune offsets to byte offsets.
func (m backtrackMatcher) findAll(text string) ([]rawMatch, error) {
	match, err := m.re.FindStringMatch(text)
	if err != nil || match == nil {
		return nil, err
	}

	offsets := runeOffsets(text)
	var out []rawMatch
	for match != nil {
		rm := rawMatch{
			start: offsets[match.Index],
			end:   offsets[match.Index+match.Length],
		}
		groups := match.Groups()
		for _, g := range groups[1:] {
			if len(g.Captures) == 0 {
				rm.groups = append(rm.groups, [2]int{-1, -1})
				continue
			}
			rm.groups = append(rm.groups, [2]int{offsets[g.Index], offsets[g.Index+g.Length]})
		}
		out = append(out, rm)

		match, err = m.re.FindNextMatch(match)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// runeOffsets maps rune index to byte offset, with one trailing entry for
// the end of text.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
