package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/ruleset"
)

const replPrompt = "> "

// REPLOptions holds flags for the repl command.
type REPLOptions struct {
	*RootOptions
	Ruleset string
}

// NewREPLCommand creates the repl command.
func NewREPLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &REPLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate lines interactively",
		Long: `Start a read-evaluate loop over a rule set.

Every line is evaluated and its result printed. Variables persist for the
whole session. When standard input is not a terminal, lines are read
without a prompt, which makes the REPL usable in pipes.

Lines:
  // <input>        Evaluate without printing the result
  bye, .quit       Exit
  .vars            List variables
  .trace on|off    Toggle the execution trace
  .help            Show help`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.ensure(cmd); err != nil {
				return err
			}
			return runREPL(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Ruleset, "ruleset", "r", ruleset.BuiltinCalculator, "rule set: builtin name or .cue file")
	cmd.Flags().String("history", "", "history file for interactive sessions")
	addEngineFlags(cmd.Flags())

	return cmd
}

// traceSwitch forwards steps to sink while on. The REPL installs one per
// session so tracing can be toggled without rebuilding the program.
type traceSwitch struct {
	on   atomic.Bool
	sink engine.Sink
}

func (t *traceSwitch) OnStep(step engine.Step) {
	if t.on.Load() {
		t.sink.OnStep(step)
	}
}

// session is the state of one REPL run.
type session struct {
	ctx       context.Context
	prog      *ruleset.Program
	trace     *traceSwitch
	formatter *OutputFormatter
	out       io.Writer
	errOut    io.Writer
}

func runREPL(opts *REPLOptions, cmd *cobra.Command) error {
	sw := &traceSwitch{sink: engine.WriterSink(cmd.ErrOrStderr())}
	sw.on.Store(opts.Config.Engine.Trace)

	prog, err := ruleset.Open(opts.Ruleset, opts.rulesetOptions(cmd, engine.WithTraceSink(sw))...)
	if err != nil {
		return newFormatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeLoadFailed, err)
	}

	s := &session{
		ctx:       cmd.Context(),
		prog:      prog,
		trace:     sw,
		formatter: newFormatter(opts.RootOptions, cmd),
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
	}

	in := cmd.InOrStdin()
	if isInteractive(in) {
		return s.interactive(opts.Config.REPL.History)
	}
	return s.piped(in)
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// interactive reads lines with readline until EOF or a quit command.
func (s *session) interactive(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCommandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize REPL", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintf(s.out, "rewrite REPL (rule set: %s)\n", s.prog.Name())
	fmt.Fprintln(s.out, "Type .help for commands, bye to exit")
	fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := s.handle(line); quit {
			return nil
		}
	}
}

// piped reads lines from r without prompting.
func (s *session) piped(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if quit := s.handle(scanner.Text()); quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "reading input", err)
	}
	return nil
}

// handle processes one line and reports whether the session should end.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "bye":
		return true
	case strings.HasPrefix(line, "//"):
		s.eval(strings.TrimSpace(strings.TrimPrefix(line, "//")), true)
		return false
	case strings.HasPrefix(line, "."):
		return s.command(line)
	default:
		s.eval(line, false)
		return false
	}
}

func (s *session) eval(input string, silent bool) {
	if input == "" {
		return
	}
	input = norm.NFC.String(input)
	res, err := s.prog.Evaluate(s.ctx, input)
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	if silent {
		return
	}
	if s.formatter.IsJSON() {
		_ = s.formatter.Success(EvalResult{Input: input, Output: res.Text, Kind: res.Kind.String()})
		return
	}
	fmt.Fprintln(s.out, res.Text)
}

// command runs a dot-command and reports whether the session should end.
func (s *session) command(line string) bool {
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".vars":
		vars := s.prog.Vars().Snapshot()
		if len(vars) == 0 {
			fmt.Fprintln(s.out, "(no variables)")
			return false
		}
		for _, name := range slices.Sorted(maps.Keys(vars)) {
			fmt.Fprintf(s.out, "%s = %s\n", name, vars[name])
		}

	case ".trace":
		if len(parts) < 2 {
			fmt.Fprintf(s.out, "trace is %s\n", onOff(s.trace.on.Load()))
			return false
		}
		switch strings.ToLower(parts[1]) {
		case "on":
			s.trace.on.Store(true)
		case "off":
			s.trace.on.Store(false)
		default:
			fmt.Fprintln(s.errOut, "Usage: .trace on|off")
			return false
		}
		fmt.Fprintf(s.out, "trace is %s\n", onOff(s.trace.on.Load()))

	default:
		fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .vars            List variables and their values
  .trace on|off    Toggle the execution trace (printed to stderr)
  .quit / bye      Exit the REPL

Tips:
  - Start a line with // to evaluate it without printing the result
  - Variables assigned on one line are visible on the next
  - Use arrow keys to navigate history
`
	fmt.Fprintln(w, help)
}

// newCommandCompleter creates a readline completer for dot-commands.
func newCommandCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".vars"),
		readline.PcItem(".trace",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem(".quit"),
		readline.PcItem("bye"),
	)
}
