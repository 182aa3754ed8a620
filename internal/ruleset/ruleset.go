package ruleset

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"github.com/hashicorp/go-version"
)

//go:embed schema.cue
var schemaSource string

// ActionKind names the action a rule runs when it matches.
type ActionKind string

const (
	ActionReplace  ActionKind = "replace"
	ActionExpr     ActionKind = "expr"
	ActionTemplate ActionKind = "template"
	ActionFatal    ActionKind = "fatal"
)

var actionKinds = []ActionKind{ActionReplace, ActionExpr, ActionTemplate, ActionFatal}

// RuleSet is a parsed rule set file.
type RuleSet struct {
	Source   string  `json:"source"`
	Format   string  `json:"format"`
	Requires string  `json:"requires,omitempty"`
	Stages   []Stage `json:"stages"`
}

// Stage is an ordered group of rules run by one engine.
type Stage struct {
	Name    string     `json:"name"`
	Restart bool       `json:"restart"`
	Trace   bool       `json:"trace"`
	Rules   []RuleSpec `json:"rules"`
	Pos     token.Pos  `json:"-"`
}

// RuleSpec is the declarative form of one rule.
type RuleSpec struct {
	Name      string     `json:"name"`
	Pattern   string     `json:"pattern,omitempty"`
	Recursive bool       `json:"recursive,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	When      string     `json:"when,omitempty"`
	Action    ActionKind `json:"action"`
	Body      string     `json:"body"`
	Pos       token.Pos  `json:"-"`
}

// IsManual reports whether the rule has no pattern.
func (r RuleSpec) IsManual() bool { return r.Pattern == "" }

// RuleCount returns the number of rules across all stages.
func (rs *RuleSet) RuleCount() int {
	n := 0
	for _, st := range rs.Stages {
		n += len(st.Rules)
	}
	return n
}

// Load reads and parses the rule set at path.
func Load(path string, opts ...Option) (*RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule set: %w", err)
	}
	return Parse(path, src, opts...)
}

// Parse parses a rule set. filename is used in error positions only.
//
// The source is checked against the rule set schema, so unknown fields are
// rejected. An optional "format" must equal FormatVersion, and the
// "requires" constraint is checked against the tool version. Patterns and
// actions are not compiled until Compile.
func Parse(filename string, src []byte, opts ...Option) (*RuleSet, error) {
	cfg := newConfig(opts)

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling rule set schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#RuleSet")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	rs := &RuleSet{Source: filename, Format: FormatVersion}

	if f, ok, err := optionalString(v, "format"); err != nil {
		return nil, err
	} else if ok && f != FormatVersion {
		return nil, &CompileError{
			Field:   "format",
			Message: fmt.Sprintf("unsupported format %q, want %q", f, FormatVersion),
			Pos:     v.LookupPath(cue.ParsePath("format")).Pos(),
		}
	}

	if req, ok, err := optionalString(v, "requires"); err != nil {
		return nil, err
	} else if ok {
		if err := checkRequires(req, cfg.toolVersion); err != nil {
			return nil, &CompileError{
				Field:   "requires",
				Message: err.Error(),
				Pos:     v.LookupPath(cue.ParsePath("requires")).Pos(),
			}
		}
		rs.Requires = req
	}

	stages, err := parseStages(v)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, &CompileError{
			Field:   "stages",
			Message: "at least one stage is required",
			Pos:     v.Pos(),
		}
	}
	rs.Stages = stages

	cfg.logger.Debug().
		Str("source", filename).
		Int("stages", len(rs.Stages)).
		Int("rules", rs.RuleCount()).
		Msg("rule set parsed")
	return rs, nil
}

func parseStages(v cue.Value) ([]Stage, error) {
	iter, err := v.LookupPath(cue.ParsePath("stages")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var stages []Stage
	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		field := fmt.Sprintf("stages[%d]", i)

		name, _, err := optionalString(sv, "name")
		if err != nil {
			return nil, err
		}
		st := Stage{Name: name, Restart: true, Pos: sv.Pos()}

		if restart, ok, err := optionalBool(sv, "restart"); err != nil {
			return nil, err
		} else if ok {
			st.Restart = restart
		}
		if st.Trace, _, err = optionalBool(sv, "trace"); err != nil {
			return nil, err
		}

		st.Rules, err = parseRules(sv, field)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}

func parseRules(stage cue.Value, stageField string) ([]RuleSpec, error) {
	rulesVal := stage.LookupPath(cue.ParsePath("rules"))
	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []RuleSpec
	for i := 0; iter.Next(); i++ {
		rule, err := parseRule(iter.Value(), fmt.Sprintf("%s.rules[%d]", stageField, i))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseRule(v cue.Value, field string) (RuleSpec, error) {
	spec := RuleSpec{Pos: v.Pos()}

	var err error
	if spec.Name, _, err = optionalString(v, "name"); err != nil {
		return spec, err
	}
	if spec.Pattern, _, err = optionalString(v, "pattern"); err != nil {
		return spec, err
	}
	if spec.Recursive, _, err = optionalBool(v, "recursive"); err != nil {
		return spec, err
	}
	if spec.When, _, err = optionalString(v, "when"); err != nil {
		return spec, err
	}

	kwVal := v.LookupPath(cue.ParsePath("keywords"))
	if kwVal.Exists() {
		iter, err := kwVal.List()
		if err != nil {
			return spec, formatCUEError(err)
		}
		for iter.Next() {
			kw, err := iter.Value().String()
			if err != nil {
				return spec, formatCUEError(err)
			}
			spec.Keywords = append(spec.Keywords, kw)
		}
	}

	var found []ActionKind
	for _, kind := range actionKinds {
		body, ok, err := optionalString(v, string(kind))
		if err != nil {
			return spec, err
		}
		if ok {
			found = append(found, kind)
			spec.Action = kind
			spec.Body = body
		}
	}
	switch len(found) {
	case 1:
	case 0:
		return spec, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("rule %q has no action (want one of replace, expr, template, fatal)", spec.Name),
			Pos:     v.Pos(),
		}
	default:
		return spec, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("rule %q has %d actions %v, want exactly one", spec.Name, len(found), found),
			Pos:     v.Pos(),
		}
	}

	if spec.Recursive && spec.IsManual() {
		return spec, &CompileError{
			Field:   field + ".recursive",
			Message: "manual rules cannot be recursive",
			Pos:     v.LookupPath(cue.ParsePath("recursive")).Pos(),
		}
	}

	return spec, nil
}

func optionalString(v cue.Value, name string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optionalBool(v cue.Value, name string) (bool, bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return false, false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

func checkRequires(requires, tool string) error {
	constraints, err := version.NewConstraint(requires)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", requires, err)
	}
	current, err := version.NewVersion(tool)
	if err != nil {
		return fmt.Errorf("invalid tool version %q: %w", tool, err)
	}
	if !constraints.Check(current) {
		return fmt.Errorf("rule set requires %s, tool version is %s", requires, current)
	}
	return nil
}
