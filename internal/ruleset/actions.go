package ruleset

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/go-sprout/sprout"
	"github.com/go-sprout/sprout/registry/conversion"
	sproutstrings "github.com/go-sprout/sprout/registry/strings"
	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/pattern"
)

var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("match", cel.StringType),
		cel.Variable("captures", cel.ListType(cel.StringType)),
		cel.Variable("text", cel.StringType),
		cel.Variable("vars", cel.MapType(cel.StringType, cel.StringType)),
	)
})

var templateFuncs = sync.OnceValues(func() (template.FuncMap, error) {
	handler := sprout.New()
	if err := handler.AddRegistries(sproutstrings.NewRegistry(), conversion.NewRegistry()); err != nil {
		return nil, err
	}
	return template.FuncMap(handler.Build()), nil
})

// compileCEL type-checks src and rejects programs whose result type is not
// one of want.
func compileCEL(src string, want ...*cel.Type) (cel.Program, error) {
	env, err := celEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}

	out := ast.OutputType()
	accepted := false
	names := make([]string, len(want))
	for i, t := range want {
		names[i] = t.String()
		if out.IsExactType(t) {
			accepted = true
		}
	}
	if !accepted {
		return nil, fmt.Errorf("expression has type %s, want %s", out, strings.Join(names, " or "))
	}
	return env.Program(ast)
}

func compileTemplate(name, src string) (*template.Template, error) {
	funcs, err := templateFuncs()
	if err != nil {
		return nil, err
	}
	return template.New(name).Option("missingkey=zero").Funcs(funcs).Parse(src)
}

// templateData is the dot value of template actions.
type templateData struct {
	Match    string
	Captures []string
	Text     string
	Vars     map[string]string
}

func (d templateData) activation() map[string]any {
	captures := d.Captures
	if captures == nil {
		captures = []string{}
	}
	return map[string]any{
		"match":    d.Match,
		"captures": captures,
		"text":     d.Text,
		"vars":     d.Vars,
	}
}

// ruleAction is the engine.Action of a declarative rule.
type ruleAction struct {
	name   string
	kind   ActionKind
	body   string
	guard  cel.Program
	expr   cel.Program
	tmpl   *template.Template
	logger zerolog.Logger
}

func (a *ruleAction) apply(s *engine.Scope, matches []pattern.Match) engine.Result {
	first := matches[0]
	data := templateData{
		Match:    first.Text,
		Captures: first.CaptureTexts(),
		Text:     s.Text(),
		Vars:     s.Vars().Snapshot(),
	}

	if a.guard != nil && !a.allowed(data) {
		return engine.Unchanged()
	}

	var (
		out string
		err error
	)
	switch a.kind {
	case ActionFatal:
		return engine.Fatal(pattern.ExpandTemplate(a.body, first.Captures))
	case ActionReplace:
		out = a.body
	case ActionExpr:
		out, err = a.evalExpr(data)
	case ActionTemplate:
		out, err = a.render(data)
	}
	if err != nil {
		return engine.Fatalf("rule %q: %v", a.name, err)
	}

	// Expanded here so recursive rules run on the substituted text. A
	// rewrite that reproduces the match would fire forever.
	out = pattern.ExpandTemplate(out, first.Captures)
	if out == first.Text {
		return engine.Unchanged()
	}
	return engine.Literal(out)
}

// allowed evaluates the guard. Evaluation errors veto the match.
func (a *ruleAction) allowed(data templateData) bool {
	val, _, err := a.guard.Eval(data.activation())
	if err != nil {
		a.logger.Debug().Err(err).Str("rule", a.name).Msg("guard failed")
		return false
	}
	ok, isBool := val.Value().(bool)
	return isBool && ok
}

func (a *ruleAction) evalExpr(data templateData) (string, error) {
	val, _, err := a.expr.Eval(data.activation())
	if err != nil {
		return "", err
	}
	s, ok := val.Value().(string)
	if !ok {
		return "", fmt.Errorf("expression produced %s, want string", val.Type().TypeName())
	}
	return s, nil
}

func (a *ruleAction) render(data templateData) (string, error) {
	var b strings.Builder
	if err := a.tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
