package ruleset

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/roach88/rewrite/internal/engine"
)

// Compile builds one engine per stage and chains them into a Program.
// Pattern, CEL and template errors are reported as *CompileError with the
// position of the offending rule.
func (rs *RuleSet) Compile(opts ...Option) (*Program, error) {
	cfg := newConfig(opts)
	vars := cfg.vars
	if vars == nil {
		vars = engine.NewVars()
	}

	stages := make([]*engine.Engine, 0, len(rs.Stages))
	for i, st := range rs.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		rules := make([]engine.Rule, 0, len(st.Rules))
		for j, spec := range st.Rules {
			rule, err := compileRule(spec, fmt.Sprintf("%s.rules[%d]", field, j), cfg)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}

		engineOpts := append([]engine.Option{}, cfg.engineOpts...)
		engineOpts = append(engineOpts,
			engine.WithName(st.Name),
			engine.WithRestart(st.Restart),
			engine.WithVars(vars),
		)
		if st.Trace {
			engineOpts = append(engineOpts, engine.WithTrace(true))
		}
		stages = append(stages, engine.New(rules, engineOpts...))
	}

	cfg.logger.Debug().
		Str("source", rs.Source).
		Int("stages", len(stages)).
		Int("rules", rs.RuleCount()).
		Msg("rule set compiled")

	return NewProgram(rs.Source, vars, stages...), nil
}

func compileRule(spec RuleSpec, field string, cfg *config) (engine.Rule, error) {
	action := &ruleAction{
		name:   spec.Name,
		kind:   spec.Action,
		body:   spec.Body,
		logger: cfg.logger,
	}

	if spec.When != "" {
		prg, err := compileCEL(spec.When, cel.BoolType)
		if err != nil {
			return engine.Rule{}, &CompileError{Field: field + ".when", Message: err.Error(), Pos: spec.Pos}
		}
		action.guard = prg
	}

	switch spec.Action {
	case ActionExpr:
		prg, err := compileCEL(spec.Body, cel.StringType, cel.DynType)
		if err != nil {
			return engine.Rule{}, &CompileError{Field: field + ".expr", Message: err.Error(), Pos: spec.Pos}
		}
		action.expr = prg
	case ActionTemplate:
		tmpl, err := compileTemplate(spec.Name, spec.Body)
		if err != nil {
			return engine.Rule{}, &CompileError{Field: field + ".template", Message: err.Error(), Pos: spec.Pos}
		}
		action.tmpl = tmpl
	case ActionReplace, ActionFatal:
	default:
		return engine.Rule{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown action %q", spec.Action),
			Pos:     spec.Pos,
		}
	}

	var ruleOpts []engine.RuleOption
	if len(spec.Keywords) > 0 {
		ruleOpts = append(ruleOpts, engine.Keywords(spec.Keywords...))
	}

	if spec.IsManual() {
		return engine.NewManualRule(spec.Name, action.apply, ruleOpts...), nil
	}

	if spec.Recursive {
		ruleOpts = append(ruleOpts, engine.Recursive())
	}
	ruleOpts = append(ruleOpts, engine.PatternOptions(cfg.patternOpts...))
	rule, err := engine.NewRule(spec.Name, spec.Pattern, action.apply, ruleOpts...)
	if err != nil {
		return engine.Rule{}, &CompileError{Field: field + ".pattern", Message: err.Error(), Pos: spec.Pos}
	}
	return rule, nil
}
