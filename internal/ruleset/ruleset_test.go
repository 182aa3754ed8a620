package ruleset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewrite/internal/engine"
)

func quiet() Option { return WithLogger(zerolog.Nop()) }

func compileSource(t *testing.T, src string, opts ...Option) *Program {
	t.Helper()
	opts = append([]Option{quiet()}, opts...)
	rs, err := Parse("test.cue", []byte(src), opts...)
	require.NoError(t, err)
	prog, err := rs.Compile(opts...)
	require.NoError(t, err)
	return prog
}

func TestLoadArith(t *testing.T) {
	rs, err := Load("testdata/arith.cue", quiet())
	require.NoError(t, err)

	assert.Equal(t, "testdata/arith.cue", rs.Source)
	assert.Equal(t, ">= 0.1.0", rs.Requires)
	assert.Equal(t, FormatVersion, rs.Format)
	require.Len(t, rs.Stages, 2)
	assert.Equal(t, 4, rs.RuleCount())

	arith := rs.Stages[0]
	assert.Equal(t, "arith", arith.Name)
	assert.True(t, arith.Restart, "restart defaults to true")
	assert.False(t, arith.Trace)
	require.Len(t, arith.Rules, 3)

	brackets := arith.Rules[0]
	assert.Equal(t, "brackets", brackets.Name)
	assert.True(t, brackets.Recursive)
	assert.Equal(t, []string{"("}, brackets.Keywords)
	assert.Equal(t, ActionReplace, brackets.Action)
	assert.Equal(t, "$0", brackets.Body)
	assert.True(t, brackets.Pos.IsValid())

	assert.Equal(t, ActionExpr, arith.Rules[1].Action)

	label := rs.Stages[1]
	assert.False(t, label.Restart)
	require.Len(t, label.Rules, 1)
	assert.True(t, label.Rules[0].IsManual())
	assert.Equal(t, ActionTemplate, label.Rules[0].Action)
	assert.Equal(t, "!text.startsWith('result')", label.Rules[0].When)
}

func TestOpenArith(t *testing.T) {
	prog, err := Open("testdata/arith.cue", quiet(),
		WithEngineOptions(engine.WithLogger(zerolog.Nop())))
	require.NoError(t, err)

	require.Len(t, prog.Stages(), 2)
	assert.Equal(t, "arith", prog.Stages()[0].Name())
	assert.False(t, prog.Stages()[1].Restart())

	tests := []struct {
		input string
		want  string
	}{
		{"2 + 3 * 4", "result: 14"},
		{"(1+2)*3", "result: 9"},
		{"((1+2)+(3+4))*2", "result: 20"},
		{"result: 5", "result: 5"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := prog.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenArithTrace(t *testing.T) {
	rec := &engine.Recorder{}
	prog, err := Open("testdata/arith.cue", quiet(), WithEngineOptions(
		engine.WithLogger(zerolog.Nop()),
		engine.WithTraceSink(rec),
	))
	require.NoError(t, err)

	_, err = prog.Execute(context.Background(), "2 + 3 * 4")
	require.NoError(t, err)
	assert.Equal(t, []string{"2 + 3 * 4", "2 + 12", "14", "14", "result: 14"}, rec.Texts())
}

func TestReplaceExpandsCaptures(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "swap"
	rules: [{
		name:    "swap"
		pattern: #"(\w+)=(\w+)"#
		replace: "$1:$0"
	}]
}]
`)
	got, err := prog.Execute(context.Background(), "a=b c=d")
	require.NoError(t, err)
	assert.Equal(t, "b:a d:c", got)
}

func TestNoOpRewriteIsUnchanged(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "same"
	rules: [{
		name:    "echo"
		pattern: #"(\w+)"#
		replace: "$0"
	}]
}]
`)
	res, err := prog.Evaluate(context.Background(), "word")
	require.NoError(t, err)
	assert.Equal(t, engine.KindUnchanged, res.Kind)
	assert.Equal(t, "word", res.Text)
}

func TestFatalAction(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "assign"
	rules: [{
		name:    "assign-number"
		pattern: #"^(\d+)\s*=\s*(\d+)$"#
		fatal:   "cannot assign $1 to $0"
	}]
}]
`)
	res, err := prog.Evaluate(context.Background(), "3 = 4")
	require.NoError(t, err)
	assert.True(t, res.IsFatal())
	assert.Equal(t, "cannot assign 4 to 3", res.Text)
}

func TestWhenGuard(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "big"
	rules: [{
		name:    "cap"
		pattern: #"\b(\d+)\b"#
		when:    "int(captures[0]) > 10"
		replace: "many"
	}]
}]
`)
	got, err := prog.Execute(context.Background(), "12 apples")
	require.NoError(t, err)
	assert.Equal(t, "many apples", got)

	got, err = prog.Execute(context.Background(), "3 apples")
	require.NoError(t, err)
	assert.Equal(t, "3 apples", got)
}

func TestGuardErrorVetoes(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "oob"
	rules: [{
		name:    "third"
		pattern: #"(\w+)"#
		when:    "captures[3] == 'x'"
		replace: "y"
	}]
}]
`)
	got, err := prog.Execute(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestExprSeesVars(t *testing.T) {
	vars := engine.NewVars()
	vars.Set("name", "world")

	prog := compileSource(t, `
stages: [{
	name: "greet"
	rules: [{
		name:    "hello"
		pattern: #"\$(\w+)"#
		when:    "captures[0] in vars"
		expr:    "vars[captures[0]]"
	}]
}]
`, WithVars(vars))

	assert.Same(t, vars, prog.Vars())
	got, err := prog.Execute(context.Background(), "hello $name, $other")
	require.NoError(t, err)
	assert.Equal(t, "hello world, $other", got)
}

func TestTemplateWithSproutFuncs(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "shout"
	rules: [{
		name:     "upper"
		pattern:  #"\b(hello)\b"#
		template: "{{ index .Captures 0 | toUpper }}"
	}]
}]
`)
	got, err := prog.Execute(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "HELLO world", got)
}

func TestManualReplace(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "reset"
	rules: [{
		name:    "blank"
		when:    "text != 'done'"
		replace: "done"
	}]
}]
`)
	got, err := prog.Execute(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestExprRuntimeErrorIsFatal(t *testing.T) {
	prog := compileSource(t, `
stages: [{
	name: "bad"
	rules: [{
		name:    "int"
		pattern: #"(\w+)"#
		expr:    "string(int(captures[0]))"
	}]
}]
`)
	res, err := prog.Evaluate(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, res.IsFatal())
	assert.Contains(t, res.Text, `rule "int"`)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		opts      []Option
		wantField string
		wantMsg   string
	}{
		{
			name:    "unknown field",
			src:     `stages: [{name: "a", rules: [{name: "r", replace: "x", bogus: 1}]}]`,
			wantMsg: "not allowed",
		},
		{
			name:      "no stages",
			src:       `stages: []`,
			wantField: "stages",
			wantMsg:   "at least one stage",
		},
		{
			name:      "no action",
			src:       `stages: [{name: "a", rules: [{name: "r", pattern: "x"}]}]`,
			wantField: "stages[0].rules[0]",
			wantMsg:   "has no action",
		},
		{
			name:      "two actions",
			src:       `stages: [{name: "a", rules: [{name: "r", pattern: "x", replace: "y", fatal: "z"}]}]`,
			wantField: "stages[0].rules[0]",
			wantMsg:   "want exactly one",
		},
		{
			name:      "recursive manual rule",
			src:       `stages: [{name: "a", rules: [{name: "r", recursive: true, replace: "y"}]}]`,
			wantField: "stages[0].rules[0].recursive",
			wantMsg:   "cannot be recursive",
		},
		{
			name:      "requires not satisfied",
			src:       `requires: ">= 2.0.0", stages: [{name: "a", rules: []}]`,
			wantField: "requires",
			wantMsg:   "tool version is 0.1.0",
		},
		{
			name:      "requires against override",
			src:       `requires: "< 0.1.0", stages: [{name: "a", rules: []}]`,
			opts:      []Option{WithToolVersion("0.2.0")},
			wantField: "requires",
			wantMsg:   "tool version is 0.2.0",
		},
		{
			name:      "unsupported format",
			src:       `format: "2", stages: [{name: "a", rules: []}]`,
			wantField: "format",
			wantMsg:   `unsupported format "2", want "1"`,
		},
		{
			name:      "invalid constraint",
			src:       `requires: "not a version", stages: [{name: "a", rules: []}]`,
			wantField: "requires",
			wantMsg:   "invalid version constraint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{quiet()}, tt.opts...)
			_, err := Parse("bad.cue", []byte(tt.src), opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T", err)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, ce.Field)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name      string
		rule      string
		wantField string
	}{
		{"bad pattern", `name: "r", pattern: "(", replace: "x"`, "stages[0].rules[0].pattern"},
		{"bad when", `name: "r", pattern: "x", when: "captures[", replace: "x"`, "stages[0].rules[0].when"},
		{"non-bool when", `name: "r", pattern: "x", when: "'yes'", replace: "x"`, "stages[0].rules[0].when"},
		{"non-string expr", `name: "r", pattern: "x", expr: "1 + 2"`, "stages[0].rules[0].expr"},
		{"bad template", `name: "r", pattern: "x", template: "{{ .Match "`, "stages[0].rules[0].template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `stages: [{name: "a", rules: [{` + tt.rule + `}]}]`
			rs, err := Parse("bad.cue", []byte(src), quiet())
			require.NoError(t, err)

			_, err = rs.Compile(quiet())
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T", err)
			assert.Equal(t, tt.wantField, ce.Field)
			require.True(t, ce.Pos.IsValid())
			assert.Equal(t, "bad.cue", ce.Pos.Filename())
			assert.Contains(t, ce.Error(), "bad.cue:1:")
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "stages", Message: "at least one stage is required"}
	assert.Equal(t, "stages: at least one stage is required", err.Error())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.cue", quiet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading rule set")
}

func TestReplaceExpandsOnce(t *testing.T) {
	tests := []struct {
		name      string
		recursive bool
		want      string
	}{
		{name: "plain", want: "(a$0)"},
		{name: "recursive", recursive: true, want: "(a$0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := compileSource(t, fmt.Sprintf(`
stages: [{
	name: "wrap"
	rules: [{
		name:      "wrap"
		pattern:   "<([^>]*)>"
		recursive: %t
		replace:   "($0)"
	}]
}]
`, tt.recursive))
			got, err := prog.Execute(context.Background(), "<a$0>")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatField(t *testing.T) {
	rs, err := Parse("test.cue", []byte(`format: "1", stages: [{name: "a", rules: []}]`), quiet())
	require.NoError(t, err)
	assert.Equal(t, "1", rs.Format)
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	rs, err := Load("testdata/arith.cue")
	require.NoError(t, err)
	prog, err := rs.Compile()
	require.NoError(t, err)
	got, err := prog.Execute(context.Background(), "2 + 3 * 4")
	require.NoError(t, err)
	assert.Equal(t, "result: 14", got)

	calc, err := Open(BuiltinCalculator)
	require.NoError(t, err)
	_, err = calc.Execute(context.Background(), "1 + 1")
	require.NoError(t, err)

	assert.Empty(t, buf.String())
}
