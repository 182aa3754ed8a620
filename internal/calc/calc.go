package calc

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/roach88/rewrite/internal/engine"
)

// Calculator evaluates expressions with a rewrite engine.
//
// A Calculator is not safe for concurrent use: its variables and random
// source are shared by every Execute call.
type Calculator struct {
	engine *engine.Engine
	vars   *engine.Vars
	rng    *rand.Rand
}

type config struct {
	engineOpts []engine.Option
	rng        *rand.Rand
	vars       *engine.Vars
}

// Option configures a Calculator.
type Option func(*config)

// WithEngineOptions passes options to the underlying engine (tracing,
// limits, logger). WithVars is applied by the calculator itself.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithRand sets the source used by random and rand.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rng = r }
}

// WithVars shares a variable table with the calculator.
func WithVars(vars *engine.Vars) Option {
	return func(c *config) { c.vars = vars }
}

// New builds a calculator.
func New(opts ...Option) *Calculator {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.vars == nil {
		cfg.vars = engine.NewVars()
	}
	if cfg.rng == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	c := &Calculator{vars: cfg.vars, rng: cfg.rng}
	engineOpts := append([]engine.Option{engine.WithName("calculator")}, cfg.engineOpts...)
	engineOpts = append(engineOpts, engine.WithVars(cfg.vars))
	c.engine = engine.New(c.rules(), engineOpts...)
	return c
}

// Engine returns the underlying engine.
func (c *Calculator) Engine() *engine.Engine { return c.engine }

// Vars returns the variable table.
func (c *Calculator) Vars() *engine.Vars { return c.vars }

// Execute evaluates expr and returns the reduced text. A fatal condition
// (assigning to a number) returns its diagnostic as the text.
func (c *Calculator) Execute(ctx context.Context, expr string) (string, error) {
	return c.engine.Execute(ctx, expr)
}

// Evaluate evaluates expr and returns the tagged result.
func (c *Calculator) Evaluate(ctx context.Context, expr string) (engine.Result, error) {
	return c.engine.Evaluate(ctx, expr)
}
