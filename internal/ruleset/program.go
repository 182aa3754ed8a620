package ruleset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roach88/rewrite/internal/calc"
	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/mixer"
)

// BuiltinPrefix marks a reference to a rule set compiled into the binary.
const BuiltinPrefix = "builtin:"

const (
	BuiltinCalculator = BuiltinPrefix + "calculator"
	BuiltinMixer      = BuiltinPrefix + "mixer"
)

// Builtins lists the built-in rule set references.
func Builtins() []string {
	return []string{BuiltinCalculator, BuiltinMixer}
}

// Program is a runnable rule set: stage engines chained into a pipeline
// and the variable table they share.
type Program struct {
	name     string
	vars     *engine.Vars
	pipeline *engine.Pipeline
	eval     func(ctx context.Context, text string) (engine.Result, error)
}

// NewProgram chains stages into a program named name.
func NewProgram(name string, vars *engine.Vars, stages ...*engine.Engine) *Program {
	if vars == nil {
		vars = engine.NewVars()
	}
	p := &Program{
		name:     name,
		vars:     vars,
		pipeline: engine.NewPipeline(stages...),
	}
	p.eval = p.pipeline.Evaluate
	return p
}

// Name returns the rule set reference the program was opened from.
func (p *Program) Name() string { return p.name }

// Vars returns the variable table shared by the stages.
func (p *Program) Vars() *engine.Vars { return p.vars }

// Stages returns the stage engines in order.
func (p *Program) Stages() []*engine.Engine { return p.pipeline.Stages() }

// Evaluate runs text through every stage.
func (p *Program) Evaluate(ctx context.Context, text string) (engine.Result, error) {
	return p.eval(ctx, text)
}

// Execute runs text through every stage and returns the final text.
func (p *Program) Execute(ctx context.Context, text string) (string, error) {
	res, err := p.Evaluate(ctx, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Open resolves ref to a program. ref is a builtin reference such as
// "builtin:calculator" or the path of a .cue rule set.
func Open(ref string, opts ...Option) (*Program, error) {
	if strings.HasPrefix(ref, BuiltinPrefix) {
		return openBuiltin(ref, newConfig(opts))
	}
	if filepath.Ext(ref) != ".cue" {
		return nil, fmt.Errorf("unknown rule set %q (want a .cue file or one of %s)",
			ref, strings.Join(Builtins(), ", "))
	}

	rs, err := Load(ref, opts...)
	if err != nil {
		return nil, err
	}
	return rs.Compile(opts...)
}

func openBuiltin(ref string, cfg *config) (*Program, error) {
	switch ref {
	case BuiltinCalculator:
		c := calc.New(calc.WithEngineOptions(cfg.engineOpts...), calc.WithVars(cfg.vars))
		return NewProgram(ref, c.Vars(), c.Engine()), nil

	case BuiltinMixer:
		m := mixer.New(cfg.engineOpts...)
		p := NewProgram(ref, m.Engine().Vars(), m.Engine())
		p.eval = func(ctx context.Context, text string) (engine.Result, error) {
			order, err := m.Mix(ctx, text)
			if err != nil {
				return engine.Result{}, err
			}
			out := order.String()
			if out == text {
				return engine.Result{Kind: engine.KindUnchanged, Text: text}, nil
			}
			return engine.Changed(out), nil
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown builtin rule set %q (want one of %s)", ref, strings.Join(Builtins(), ", "))
	}
}
