package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/rewrite/internal/config"
	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/logging"
	"github.com/roach88/rewrite/internal/ruleset"
)

const (
	formatText = config.FormatText
	formatJSON = config.FormatJSON
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"
	LogLevel   string

	// Config is resolved before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{formatText, formatJSON}

// NewRootCommand creates the root command for the rewrite CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "rewrite - pattern-driven text rewriting",
		Long: `A text-rewriting engine: ordered pattern/action rules are applied to a
text until no rule changes it further.

Rule sets are either built in (builtin:calculator, builtin:mixer) or
declared in CUE files. Settings are read from rewrite.yaml or rewrite.toml,
REWRITE_* environment variables and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default: ./rewrite.yaml, ./rewrite.yml or ./rewrite.toml)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", formatText, "output format (json|text)")
	pf.StringVar(&opts.LogLevel, "log-level", logging.DefaultLevel, "log level (trace|debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewREPLCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the layered configuration and sets up logging. Invalid
// settings are command errors.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	// Validate format flag
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigFile, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration error ["+ErrCodeConfig+"]", err)
	}
	o.Config = cfg
	o.Format = cfg.Output.Format
	o.LogLevel = cfg.Log.Level

	if err := logging.Setup(cfg.Log.Level, cmd.ErrOrStderr()); err != nil {
		return WrapExitError(ExitCommandError, "configuration error ["+ErrCodeConfig+"]", err)
	}
	if cfg.FileUsed != "" {
		logger := logging.Get("cli")
		logger.Debug().Str("file", cfg.FileUsed).Msg("config loaded")
	}
	return nil
}

// ensure resolves the configuration for commands that run without the
// root command's pre-run hook.
func (o *RootOptions) ensure(cmd *cobra.Command) error {
	if o.Config != nil {
		return nil
	}
	return o.resolve(cmd)
}

// rulesetOptions converts the resolved configuration into options for
// ruleset.Open. extra engine options are applied last.
func (o *RootOptions) rulesetOptions(cmd *cobra.Command, extra ...engine.Option) []ruleset.Option {
	cfg := o.Config

	engineOpts := cfg.EngineOptions()
	if cfg.Engine.Trace {
		engineOpts = append(engineOpts, engine.WithTraceSink(engine.WriterSink(cmd.ErrOrStderr())))
	}
	engineOpts = append(engineOpts, engine.WithLogger(logging.Get("engine")))
	engineOpts = append(engineOpts, extra...)

	return []ruleset.Option{
		ruleset.WithEngineOptions(engineOpts...),
		ruleset.WithPatternOptions(cfg.PatternOptions()...),
		ruleset.WithLogger(logging.Get("ruleset")),
	}
}

// addEngineFlags registers the flags that override the engine and pattern
// sections of the configuration. Their values are read through
// config.Load, never directly.
func addEngineFlags(fs *pflag.FlagSet) {
	fs.Int("max-steps", engine.DefaultMaxSteps, "rule firings allowed per evaluation (0 = unlimited)")
	fs.Int("max-depth", engine.DefaultMaxDepth, "recursive expansion depth limit (0 = unlimited)")
	fs.Bool("trace", false, "print an execution trace to stderr")
	fs.Bool("restart", true, "restart from the first rule after every change")
	fs.Bool("detect-cycles", false, "abort when an evaluation revisits a state")
	fs.String("regex-engine", "regexp2", "pattern engine for CUE rule sets (regexp2|re2)")
	fs.Duration("regex-timeout", 0, "per-match timeout for the regexp2 engine (0 = none)")
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
