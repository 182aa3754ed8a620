package calc

import (
	"context"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/testutil"
)

func newTestCalculator(opts ...engine.Option) *Calculator {
	return New(
		WithEngineOptions(testutil.EngineOptions("calc-test", opts...)...),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
}

func TestCalculator_Expressions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"composite", "5 * (3 + 2 * 2) / sqrt(5 * 7 - power(10, cos(0))) + sum([1, 2, 3])", "13"},
		{"precedence", "2 + 3 * 4", "14"},
		{"left to right subtraction", "10 - 2 - 3", "5"},
		{"negative operand", "1 - -2", "3"},
		{"exponent", "2 ^ 10", "1024"},
		{"modulo", "7 % 3", "1"},
		{"fraction", "1 / 4", "0.25"},
		{"nested brackets", "((1 + 2) * (3 + 4))", "21"},
		{"hex", "0xff", "255"},
		{"hex arithmetic", "0x1F + 1", "32"},
		{"factorial", "5!", "120"},
		{"factorial zero", "0!", "1"},
		{"negation", "!true", "false"},
		{"and", "true and false", "false"},
		{"xor", "true xor false", "true"},
		{"nor", "false nor false", "true"},
		{"greater", "3 > 2", "true"},
		{"greater or equal", "2 >= 3", "false"},
		{"not equal is not factorial", "3!=4", "true"},
		{"ternary true", "true ? 1 : 2", "1"},
		{"ternary false", "false ? 1 : 2", "2"},
		{"ternary comparison", "2 > 1 ? 10 : 20", "10"},
		{"range", "1:5", "[1, 2, 3, 4, 5]"},
		{"stepped range", "0:2:6", "[0, 2, 4, 6]"},
		{"descending range rejected", "5:1", errRange},
		{"vector addition", "[1, 2] + [3, 4]", "[4, 6]"},
		{"vector subtraction", "[3, 4] - [1, 1]", "[2, 3]"},
		{"dot product", "[1, 2, 3] * [4, 5, 6]", "32"},
		{"cross product", "[1, 0, 0] x [0, 1, 0]", "[0, 0, 1]"},
		{"cross product dimension", "[1, 0] x [0, 1]", errVectorMul},
		{"scalar times vector", "2 * [1, 2]", "[2, 4]"},
		{"vector times scalar", "[1, 2] * 3", "[3, 6]"},
		{"vector filter", "[1, 2, 3, 4] > 2", "[3, 4]"},
		{"vector mapping", "[1, 2, 3] {this * 2}", "[2, 4, 6]"},
		{"vector mapping remove", "[1, 2, 3] {this > 1 ? this : remove}", "[2, 3]"},
		{"mapped range", "1:3 {this ^ 2}", "[1, 4, 9]"},
		{"sum", "sum([1, 2, 3])", "6"},
		{"sum without parens", "sum[1, 2]", "3"},
		{"product", "product([2, 3, 4])", "24"},
		{"power", "power(2, 8)", "256"},
		{"sumproduct", "sumproduct([1, 2], [3, 4])", "11"},
		{"sqrt", "sqrt(16)", "4"},
		{"floor", "floor(2.7)", "2"},
		{"round", "round(2.5)", "3"},
		{"log2", "log2(8)", "3"},
		{"cos", "cos(0)", "1"},
		{"function of expression", "sqrt(3 * 3 + 4 * 4)", "5"},
		{"pi", "pi", "3.141592653589793"},
		{"untouched", "hello world", "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCalculator()
			got, err := c.Execute(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculator_Log(t *testing.T) {
	c := newTestCalculator()
	got, err := c.Execute(context.Background(), "log(8, 2)")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, ParseNumber(got), 1e-9)
}

func TestCalculator_Random(t *testing.T) {
	c := newTestCalculator()
	ctx := context.Background()

	got, err := c.Execute(ctx, "rand")
	require.NoError(t, err)
	v, err := strconv.ParseFloat(got, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)

	got, err = c.Execute(ctx, "random()")
	require.NoError(t, err)
	_, err = strconv.ParseUint(got, 10, 32)
	assert.NoError(t, err)
}

func TestCalculator_Variables(t *testing.T) {
	c := newTestCalculator()
	ctx := context.Background()

	steps := []struct{ in, want string }{
		{"x = 5", "5"},
		{"x * 2", "10"},
		{"y = x + 1", "6"},
		{"x + y", "11"},
		{"(z = 3) * 2", "6"},
		{"z", "3"},
		{"(4 = w) + 1", "5"},
		{"w * w", "16"},
	}
	for _, step := range steps {
		got, err := c.Execute(ctx, step.in)
		require.NoError(t, err, step.in)
		assert.Equal(t, step.want, got, step.in)
	}

	want := map[string]string{"x": "5", "y": "6", "z": "3", "w": "4"}
	if diff := cmp.Diff(want, c.Vars().Snapshot()); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculator_InterpolationMatchesWholeWords(t *testing.T) {
	c := newTestCalculator()
	c.Vars().Set("a", "2")

	got, err := c.Execute(context.Background(), "ab + a")
	require.NoError(t, err)
	assert.Equal(t, "ab + 2", got)
}

func TestCalculator_SharedVars(t *testing.T) {
	vars := engine.NewVars()
	first := New(WithVars(vars), WithEngineOptions(engine.WithLogger(zerolog.Nop())))
	second := New(WithVars(vars), WithEngineOptions(engine.WithLogger(zerolog.Nop())))
	ctx := context.Background()

	_, err := first.Execute(ctx, "k = 9")
	require.NoError(t, err)
	got, err := second.Execute(ctx, "k + 1")
	require.NoError(t, err)
	assert.Equal(t, "10", got)
}

func TestCalculator_AssignmentToNumberIsFatal(t *testing.T) {
	c := newTestCalculator()

	res, err := c.Evaluate(context.Background(), "3 = 5")
	require.NoError(t, err)
	assert.Equal(t, engine.KindFatal, res.Kind)
	assert.Equal(t, "{Assignment Error: cannot assign number 5 to number 3}", res.Text)
}

func TestCalculator_FatalInsideBracketsBecomesText(t *testing.T) {
	c := newTestCalculator()

	res, err := c.Evaluate(context.Background(), "(3 = 5) + 1")
	require.NoError(t, err)
	assert.Equal(t, engine.KindChanged, res.Kind)
	assert.Equal(t, "{Assignment Error: cannot assign number 5 to number 3} + 1", res.Text)
}

func TestCalculator_Silent(t *testing.T) {
	c := newTestCalculator()

	got, err := c.Execute(context.Background(), "silent{q = 7}")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	q, ok := c.Vars().Get("q")
	assert.True(t, ok)
	assert.Equal(t, "7", q)
}

func TestCalculator_Trace(t *testing.T) {
	rec := &engine.Recorder{}
	c := newTestCalculator(engine.WithTraceSink(rec))

	_, err := c.Execute(context.Background(), "2 + 3 * 4")
	require.NoError(t, err)

	assert.Equal(t, []string{"2 + 3 * 4", "2 + 12", "14"}, rec.Texts())
	steps := rec.Steps()
	assert.Equal(t, []string{"multiplication", "addition"}, testutil.Firings(steps))
	assert.Equal(t, "calculator", steps[0].Engine)
}

func TestCalculator_Idempotent(t *testing.T) {
	c := newTestCalculator()
	ctx := context.Background()

	for _, in := range []string{"2 + 3 * 4", "[1, 2] + [3, 4]", "true and true", "sqrt(2)"} {
		once, err := c.Execute(ctx, in)
		require.NoError(t, err)
		twice, err := c.Execute(ctx, once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestCalculator_RuleNames(t *testing.T) {
	c := newTestCalculator()
	rules := c.Engine().Rules()

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name()
	}
	assert.Equal(t, "hex", names[0])
	assert.Equal(t, "silent", names[len(names)-1])
	assert.Contains(t, names, "variable-interpolation")

	for _, r := range rules {
		if r.Name() == "variable-interpolation" {
			assert.Equal(t, engine.RuleManual, r.Kind())
		}
	}
}
