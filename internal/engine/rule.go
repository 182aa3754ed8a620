package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/rewrite/internal/pattern"
)

// Action computes a rewrite from the matches of a rule.
//
// Patterned rules pass every non-overlapping match in left-to-right order.
// Manual rules pass a single match spanning the whole text. Actions must be
// deterministic with respect to their inputs and the scope's variables.
type Action func(s *Scope, matches []pattern.Match) Result

// RuleKind distinguishes patterned from manual rules.
type RuleKind int

const (
	// RulePatterned rules match a regular expression against the text.
	RulePatterned RuleKind = iota

	// RuleManual rules always run against the whole text.
	RuleManual
)

// String returns a lowercase name for the kind.
func (k RuleKind) String() string {
	if k == RuleManual {
		return "manual"
	}
	return "patterned"
}

// Rule is a single rewrite rule.
//
// Rules are immutable after construction and may be shared between engines.
type Rule struct {
	name      string
	kind      RuleKind
	pattern   *pattern.Pattern
	action    Action
	recursive bool
	keywords  []string
}

// RuleOption configures a Rule.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	recursive   bool
	keywords    []string
	patternOpts []pattern.Option
}

// Recursive makes the rule expand its action output through the engine
// before splicing it in. Ignored for manual rules.
func Recursive() RuleOption {
	return func(c *ruleConfig) { c.recursive = true }
}

// Keywords gates the rule behind a keyword prefilter: the rule is only
// tried when at least one keyword occurs in the text (case-insensitive).
func Keywords(keywords ...string) RuleOption {
	return func(c *ruleConfig) { c.keywords = append(c.keywords, keywords...) }
}

// PatternOptions passes options through to pattern.Compile.
func PatternOptions(opts ...pattern.Option) RuleOption {
	return func(c *ruleConfig) { c.patternOpts = append(c.patternOpts, opts...) }
}

// ErrNilAction is returned when a rule is built without an action.
var ErrNilAction = errors.New("rule action is nil")

// NewRule compiles source and returns a patterned rule.
func NewRule(name, source string, action Action, opts ...RuleOption) (Rule, error) {
	cfg := applyRuleOptions(opts)
	p, err := pattern.Compile(source, cfg.patternOpts...)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	return newPatternRule(name, p, action, cfg)
}

// PatternRule returns a patterned rule over an already compiled pattern.
// PatternOptions are ignored.
func PatternRule(name string, p *pattern.Pattern, action Action, opts ...RuleOption) (Rule, error) {
	if p == nil {
		return Rule{}, fmt.Errorf("rule %q: pattern is nil", name)
	}
	return newPatternRule(name, p, action, applyRuleOptions(opts))
}

// MustRule is like NewRule but panics on error. It is intended for rule
// tables built at package initialization.
func MustRule(name, source string, action Action, opts ...RuleOption) Rule {
	r, err := NewRule(name, source, action, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewManualRule returns a rule that runs action against the whole text.
func NewManualRule(name string, action Action, opts ...RuleOption) Rule {
	if action == nil {
		panic(fmt.Sprintf("rule %q: %v", name, ErrNilAction))
	}
	cfg := applyRuleOptions(opts)
	return Rule{
		name:     name,
		kind:     RuleManual,
		action:   action,
		keywords: cfg.keywords,
	}
}

func newPatternRule(name string, p *pattern.Pattern, action Action, cfg ruleConfig) (Rule, error) {
	if action == nil {
		return Rule{}, fmt.Errorf("rule %q: %w", name, ErrNilAction)
	}
	return Rule{
		name:      name,
		kind:      RulePatterned,
		pattern:   p,
		action:    action,
		recursive: cfg.recursive,
		keywords:  cfg.keywords,
	}, nil
}

func applyRuleOptions(opts []RuleOption) ruleConfig {
	var cfg ruleConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Name returns the rule name. Names are informational only.
func (r Rule) Name() string { return r.name }

// Kind returns whether the rule is patterned or manual.
func (r Rule) Kind() RuleKind { return r.kind }

// Pattern returns the compiled pattern, or nil for manual rules.
func (r Rule) Pattern() *pattern.Pattern { return r.pattern }

// IsRecursive reports whether the rule expands its own output.
func (r Rule) IsRecursive() bool { return r.recursive }

// Keywords returns the prefilter keywords, if any.
func (r Rule) Keywords() []string { return r.keywords }

// Apply runs the rule against text in the given scope.
//
// For patterned rules a changed action result is used as a back-reference
// template for the first match and spliced over that match only. For
// manual rules the result is returned as is.
func (r Rule) Apply(s *Scope, text string) Result {
	if r.kind == RuleManual {
		res := r.action(s, []pattern.Match{pattern.Whole(text)})
		if res.literal {
			return Changed(res.Text)
		}
		return res
	}

	matches, err := r.pattern.FindAll(text)
	if err != nil {
		s.abort(NewMatchError(s.RunID(), r.name, err))
		return Unchanged()
	}
	if len(matches) == 0 {
		return Unchanged()
	}

	res := r.action(s, matches)
	if res.Kind != KindChanged {
		return res
	}

	replacement := res.Text
	if r.recursive {
		expanded := s.Execute(replacement)
		if s.aborted() {
			return Unchanged()
		}
		// A fatal from the nested run is spliced in as plain text.
		replacement = expanded.Text
	}
	if res.literal {
		return Changed(pattern.Splice(text, matches[0].Span, replacement))
	}
	return Changed(pattern.SpliceFirst(text, matches[0], replacement))
}
