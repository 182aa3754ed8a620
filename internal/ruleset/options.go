package ruleset

import (
	"github.com/rs/zerolog"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/pattern"
)

// Option configures loading and compiling.
type Option func(*config)

type config struct {
	toolVersion string
	vars        *engine.Vars
	engineOpts  []engine.Option
	patternOpts []pattern.Option
	logger      zerolog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		toolVersion: ToolVersion,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithToolVersion overrides the version "requires" is checked against.
func WithToolVersion(v string) Option {
	return func(c *config) { c.toolVersion = v }
}

// WithVars shares a variable table with the compiled stages. By default
// each compiled program gets a fresh table shared by all of its stages.
func WithVars(vars *engine.Vars) Option {
	return func(c *config) { c.vars = vars }
}

// WithEngineOptions passes options to every stage engine. Stage settings
// from the file are applied after them.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithPatternOptions passes options to every pattern compile.
func WithPatternOptions(opts ...pattern.Option) Option {
	return func(c *config) { c.patternOpts = append(c.patternOpts, opts...) }
}

// WithLogger sets the logger for loading and compiling. Default: a no-op
// logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}
