package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewrite/internal/pattern"
)

func TestNewRule_CompileError(t *testing.T) {
	_, err := NewRule("broken", `(\d+`, replace("x"))
	require.Error(t, err)

	var ce *pattern.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `(\d+`, ce.Source)
	assert.Contains(t, err.Error(), `rule "broken"`)
}

func TestNewRule_NilAction(t *testing.T) {
	_, err := NewRule("empty", `a`, nil)
	assert.ErrorIs(t, err, ErrNilAction)

	_, err = PatternRule("empty", pattern.MustCompile(`a`), nil)
	assert.ErrorIs(t, err, ErrNilAction)

	_, err = PatternRule("nil-pattern", nil, replace("x"))
	assert.Error(t, err)

	assert.Panics(t, func() { NewManualRule("empty", nil) })
}

func TestMustRule_Panics(t *testing.T) {
	assert.Panics(t, func() { MustRule("broken", `[`, replace("x")) })
}

func TestRule_Accessors(t *testing.T) {
	r := MustRule("brackets", `\((.*)\)`, replace("$0"), Recursive(), Keywords("(", "["))

	assert.Equal(t, "brackets", r.Name())
	assert.Equal(t, RulePatterned, r.Kind())
	assert.Equal(t, "patterned", r.Kind().String())
	assert.True(t, r.IsRecursive())
	assert.Equal(t, []string{"(", "["}, r.Keywords())
	assert.Equal(t, `\((.*)\)`, r.Pattern().String())

	m := NewManualRule("whole", replace("x"), Recursive())
	assert.Equal(t, RuleManual, m.Kind())
	assert.Equal(t, "manual", m.Kind().String())
	assert.False(t, m.IsRecursive(), "manual rules never expand recursively")
	assert.Nil(t, m.Pattern())
}

func TestRule_PatternOptions(t *testing.T) {
	r := MustRule("ci", `abc`, replace("x"), PatternOptions(pattern.WithIgnoreCase()))
	e := newTestEngine([]Rule{r})

	got, err := e.Execute(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestRule_ApplyOutsideEngine(t *testing.T) {
	e := newTestEngine(nil)
	s := &Scope{run: &run{ctx: context.Background(), engine: e, quota: NewQuotaEnforcer(0), clock: NewClock()}}

	r := MustRule("swap", `(\d)-(\d)`, replace("$1-$0"))
	assert.Equal(t, Changed("a 2-1 3-4"), r.Apply(s, "a 1-2 3-4"))
	assert.Equal(t, Unchanged(), r.Apply(s, "nothing"))
}

func TestRule_UnchangedActionLeavesText(t *testing.T) {
	e := newTestEngine([]Rule{
		MustRule("noop", `.+`, func(_ *Scope, _ []pattern.Match) Result { return Unchanged() }),
	})

	res, err := e.Evaluate(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: KindUnchanged, Text: "keep"}, res)
}

func TestRule_LiteralIsNotExpanded(t *testing.T) {
	e := newTestEngine(nil)
	s := &Scope{run: &run{ctx: context.Background(), engine: e, quota: NewQuotaEnforcer(0), clock: NewClock()}}

	wrap := func(_ *Scope, ms []pattern.Match) Result {
		return Literal("(" + ms[0].Group(0) + ")")
	}
	r := MustRule("wrap", `<([^>]*)>`, wrap)
	assert.Equal(t, Changed("x (a$0) <b>"), r.Apply(s, "x <a$0> <b>"))

	// The same output as a template is expanded once against the captures.
	tmpl := MustRule("wrap", `<([^>]*)>`, replace("($0)"))
	assert.Equal(t, Changed("(a$0)"), tmpl.Apply(s, "<a$0>"))
}

func TestRule_ManualLiteral(t *testing.T) {
	e := newTestEngine(nil)
	s := &Scope{run: &run{ctx: context.Background(), engine: e, quota: NewQuotaEnforcer(0), clock: NewClock()}}

	r := NewManualRule("all", func(_ *Scope, _ []pattern.Match) Result { return Literal("$0") })
	assert.Equal(t, Changed("$0"), r.Apply(s, "x"))
}
