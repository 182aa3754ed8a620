package harness

import (
	"context"
	"fmt"

	"github.com/fatih/semgroup"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/logging"
	"github.com/roach88/rewrite/internal/ruleset"
)

// DefaultParallelism bounds RunAll when no parallelism is set.
const DefaultParallelism = 4

// Option configures Run and RunAll.
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	parallelism int
	rulesetOpts []ruleset.Option
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:      zerolog.Nop(),
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used by the harness and the engines it
// builds. Default: a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithParallelism bounds how many scenarios RunAll runs at once.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithRulesetOptions passes options to ruleset.Open, for example a
// pattern engine or step limit.
func WithRulesetOptions(opts ...ruleset.Option) Option {
	return func(o *options) { o.rulesetOpts = append(o.rulesetOpts, opts...) }
}

// Run executes a scenario and returns the result.
//
// Each call opens its own program, so concurrent runs share no state.
// Engines get the scenario's fixed run ID and record into an in-memory
// trace. Inputs and expectations are NFC-normalized before comparison.
// A non-nil error means the scenario could not run at all; case and
// assertion failures are reported in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	rec := &engine.Recorder{}
	rulesetOpts := append([]ruleset.Option{ruleset.WithLogger(o.logger)}, o.rulesetOpts...)
	rulesetOpts = append(rulesetOpts, ruleset.WithEngineOptions(
		engine.WithLogger(o.logger),
		engine.WithRunIDs(engine.StaticGenerator(scenario.RunID)),
		engine.WithTraceSink(rec),
	))

	prog, err := ruleset.Open(scenario.Ruleset, rulesetOpts...)
	if err != nil {
		return nil, fmt.Errorf("opening rule set: %w", err)
	}

	result := NewResult(scenario.Name, scenario.RunID)
	for i, c := range scenario.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec.Reset()
		input := norm.NFC.String(c.Input)
		res, err := prog.Evaluate(ctx, input)

		cr := CaseResult{Input: input, Pass: true}
		if err != nil {
			cr.Kind = "error"
			cr.Error = err.Error()
		} else {
			cr.Output = res.Text
			cr.Kind = res.Kind.String()
		}
		cr.Trace = traceEvents(rec.Steps())

		for _, msg := range checkCase(c, res, err) {
			cr.Pass = false
			result.AddError(fmt.Sprintf("cases[%d] %q: %s", i, input, msg))
		}
		result.Cases = append(result.Cases, cr)
	}

	if vars := prog.Vars().Snapshot(); len(vars) > 0 {
		result.Vars = vars
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	o.logger.Debug().
		Str("scenario", scenario.Name).
		Int("cases", len(result.Cases)).
		Bool("pass", result.Pass).
		Msg("scenario finished")
	return result, nil
}

func checkCase(c Case, res engine.Result, err error) []string {
	if err != nil {
		return []string{fmt.Sprintf("run failed: %v", err)}
	}

	var msgs []string
	if c.Expect != nil {
		if want := norm.NFC.String(*c.Expect); res.Text != want {
			msgs = append(msgs, fmt.Sprintf("got %q, want %q", res.Text, want))
		}
	}
	switch {
	case c.Fatal && !res.IsFatal():
		msgs = append(msgs, fmt.Sprintf("want fatal result, got %s", res.Kind))
	case !c.Fatal && res.IsFatal():
		msgs = append(msgs, fmt.Sprintf("unexpected fatal result %q", res.Text))
	}
	return msgs
}

// RunAll runs scenarios concurrently with bounded parallelism and returns
// their results in input order. Scenarios that could not run leave a nil
// result and contribute to the returned error.
func RunAll(ctx context.Context, scenarios []*Scenario, opts ...Option) ([]*Result, error) {
	o := newOptions(opts)
	defer logging.LogOperationStart(o.logger, "run_all")()
	results := make([]*Result, len(scenarios))

	sg := semgroup.NewGroup(ctx, int64(o.parallelism))
	for i, scenario := range scenarios {
		sg.Go(func() error {
			res, err := Run(ctx, scenario, opts...)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", scenario.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	err := sg.Wait()
	return results, err
}
