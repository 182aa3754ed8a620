package engine

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// Engine applies an ordered list of rules to a text until no rule changes
// it.
//
// An Engine is immutable after New except for its Vars table, which actions
// mutate. Distinct engines may run in parallel; a single engine should not
// be shared across goroutines unless its actions tolerate interleaved
// variable updates.
type Engine struct {
	name         string
	rules        []Rule
	trace        bool
	sink         Sink
	restart      bool
	maxSteps     int
	maxDepth     int
	detectCycles bool
	vars         *Vars
	runIDs       RunIDGenerator
	logger       zerolog.Logger
	keywords     *keywordFilter
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrace enables or disables tracing. Steps go to stderr unless a sink
// is set with WithTraceSink.
func WithTrace(enabled bool) Option {
	return func(e *Engine) { e.trace = enabled }
}

// WithTraceSink sets the trace destination and enables tracing.
func WithTraceSink(sink Sink) Option {
	return func(e *Engine) {
		e.sink = sink
		e.trace = sink != nil
	}
}

// WithRestart controls whether the cursor returns to the first rule after
// every change (true, the default) or advances to the next rule (false).
func WithRestart(restart bool) Option {
	return func(e *Engine) { e.restart = restart }
}

// WithMaxSteps sets the number of rule firings allowed per run, counted
// across every recursion level. Zero disables the quota.
//
// Default: DefaultMaxSteps.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) { e.maxSteps = maxSteps }
}

// WithMaxDepth sets how deep Scope.Execute may nest. Zero disables the
// limit.
//
// Default: DefaultMaxDepth.
func WithMaxDepth(maxDepth int) Option {
	return func(e *Engine) { e.maxDepth = maxDepth }
}

// WithCycleDetection aborts a run as soon as an execution revisits a
// (text, cursor) state.
func WithCycleDetection(enabled bool) Option {
	return func(e *Engine) { e.detectCycles = enabled }
}

// WithVars sets the variable table. Engines sharing a table share state.
func WithVars(vars *Vars) Option {
	return func(e *Engine) {
		if vars != nil {
			e.vars = vars
		}
	}
}

// WithRunIDs sets the run ID generator. Default: UUIDv7Generator.
func WithRunIDs(gen RunIDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.runIDs = gen
		}
	}
}

// WithName labels trace steps and log lines.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithLogger sets the engine logger. Default: a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over rules, tried in slice order.
func New(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:    append([]Rule(nil), rules...),
		restart:  true,
		maxSteps: DefaultMaxSteps,
		maxDepth: DefaultMaxDepth,
		vars:     NewVars(),
		runIDs:   UUIDv7Generator{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.trace && e.sink == nil {
		e.sink = WriterSink(os.Stderr)
	}
	e.keywords = newKeywordFilter(e.rules)
	return e
}

// Name returns the engine label.
func (e *Engine) Name() string { return e.name }

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []Rule { return append([]Rule(nil), e.rules...) }

// Vars returns the engine's variable table.
func (e *Engine) Vars() *Vars { return e.vars }

// Restart reports whether the engine restarts from the first rule after
// a change.
func (e *Engine) Restart() bool { return e.restart }

// Tracing reports whether tracing is enabled.
func (e *Engine) Tracing() bool { return e.trace }

// Execute runs the engine on text and returns the final text.
//
// If a rule reports a fatal condition, Execute returns the diagnostic
// message in place of the text. Use Evaluate to tell the two apart.
func (e *Engine) Execute(ctx context.Context, text string) (string, error) {
	res, err := e.Evaluate(ctx, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Evaluate runs the engine on text and returns a tagged result.
//
// Kind is KindFatal when a rule stopped evaluation, KindChanged when the
// text was rewritten and KindUnchanged otherwise. A non-nil error means
// the run was aborted by a limit, a pattern failure or ctx.
func (e *Engine) Evaluate(ctx context.Context, text string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{
		ctx:    ctx,
		engine: e,
		id:     e.runIDs.Generate(),
		quota:  NewQuotaEnforcer(e.maxSteps),
		clock:  NewClock(),
	}

	e.logger.Debug().
		Str("run_id", r.id).
		Str("engine", e.name).
		Int("rules", len(e.rules)).
		Msg("run starting")

	res := e.loop(r, 0, text)
	if r.err != nil {
		e.logger.Warn().
			Err(r.err).
			Str("run_id", r.id).
			Str("engine", e.name).
			Int("steps", r.quota.Current()).
			Msg("run aborted")
		return Result{}, r.err
	}

	e.logger.Debug().
		Str("run_id", r.id).
		Str("engine", e.name).
		Str("outcome", res.Kind.String()).
		Int("steps", r.quota.Current()).
		Msg("run finished")
	return res, nil
}

// loop is the fixpoint driver. It returns the final text tagged Changed or
// Unchanged, or the first fatal result. On abort it records the error on r
// and returns the text reached so far.
func (e *Engine) loop(r *run, depth int, input string) Result {
	if e.maxDepth > 0 && depth > e.maxDepth {
		r.abort(NewDepthError(r.id, depth, e.maxDepth))
		return Result{Kind: KindUnchanged, Text: input}
	}

	scope := &Scope{run: r, depth: depth}
	text := input
	changed := false

	if e.trace {
		e.emit(r, depth, StepStart, "", -1, text)
	}

	var cycles *CycleDetector
	if e.detectCycles {
		cycles = NewCycleDetector()
		cycles.Record(StateHash(text, 0))
	}

	live := e.keywords.live(text)
	for i := 0; i < len(e.rules); i++ {
		if err := r.ctx.Err(); err != nil {
			r.abort(err)
			break
		}
		if live != nil && !live[i] {
			continue
		}

		rule := e.rules[i]
		scope.text = text
		res := rule.Apply(scope, text)
		if r.err != nil {
			break
		}

		switch res.Kind {
		case KindFatal:
			e.logger.Debug().
				Str("run_id", r.id).
				Str("rule", rule.name).
				Str("message", res.Text).
				Msg("fatal result")
			return res

		case KindChanged:
			if err := r.quota.Check(r.id, rule.name); err != nil {
				r.abort(err)
				return Result{Kind: KindUnchanged, Text: text}
			}
			text = res.Text
			changed = true

			e.logger.Trace().
				Str("run_id", r.id).
				Int("depth", depth).
				Int("rule_index", i).
				Str("rule", rule.name).
				Msg("rule fired")
			if e.trace {
				e.emit(r, depth, StepRewrite, rule.name, i, text)
			}

			next := i + 1
			if e.restart {
				next = 0
			}
			if cycles != nil {
				state := StateHash(text, next)
				if cycles.WouldCycle(state) {
					r.abort(NewCycleError(r.id, rule.name, state))
					return Result{Kind: KindUnchanged, Text: text}
				}
				cycles.Record(state)
			}

			live = e.keywords.live(text)
			i = next - 1
		}
	}

	if changed {
		return Result{Kind: KindChanged, Text: text}
	}
	return Result{Kind: KindUnchanged, Text: text}
}

func (e *Engine) emit(r *run, depth int, kind StepKind, rule string, index int, text string) {
	e.sink.OnStep(Step{
		RunID:     r.id,
		Seq:       r.clock.Next(),
		Engine:    e.name,
		Depth:     depth,
		Kind:      kind,
		Rule:      rule,
		RuleIndex: index,
		Text:      text,
	})
}
