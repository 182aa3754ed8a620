package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/pattern"
)

var identifier = pattern.MustCompile(`[a-zA-Z]+`, pattern.WithEngine(pattern.EngineBacktrack))

func rule(name, source string, action engine.Action, opts ...engine.RuleOption) engine.Rule {
	opts = append(opts, engine.PatternOptions(pattern.WithEngine(pattern.EngineBacktrack)))
	return engine.MustRule(name, source, action, opts...)
}

// rules returns the calculator rules in precedence order.
func (c *Calculator) rules() []engine.Rule {
	return []engine.Rule{
		rule("hex", `0x([A-Fa-f0-9]+)`, hexLiteral, engine.Keywords("0x")),
		rule("vector-mapping", `(`+vector+`)`+ws+closure, vectorMapping, engine.Keywords("{")),
		rule("range", `(`+number+`)(:)(?:(`+number+`):)?(`+number+`)`, rangeLiteral, engine.Keywords(":")),

		rule("postfix-function", `(`+integer+`)(!)(?!=)`, postfixFunction, engine.Keywords("!")),
		rule("prefix-function", `(!)(`+boolean+`)`, prefixFunction, engine.Keywords("!")),

		rule("empty-function", `\b(`+emptyFunction+`)\b(?:\(\))?`, c.emptyFunction, engine.Keywords("pi", "rand")),
		rule("unary-function", `(`+unaryFunction+`)\((`+expression+`)\)`, unaryFn, engine.Recursive()),
		rule("binary-function", `(`+binaryFunction+`)\((`+expression+`)`+ws+`,`+ws+`(`+expression+`)\)`, binaryFn,
			engine.Recursive(), engine.Keywords("power", "log", "sumproduct")),
		rule("var-function", `(`+varFunction+`) \(? (`+vector+`) \)?`, varFn,
			engine.Recursive(), engine.Keywords("sum", "product")),

		rule("brackets", `\((`+expression+`)\)`, brackets, engine.Recursive(), engine.Keywords("(")),

		rule("assignment", `^`+ws+`([a-zA-Z]+)\s+(=)\s+(.+)`, assignment(0, 2), engine.Keywords("=")),
		rule("inline-assignment", `([a-zA-Z]+)\s+(=)\s+(`+number+`)`, assignment(0, 2), engine.Keywords("=")),
		rule("inline-assignment-inverse", `(`+number+`)\s+(=)\s+([a-zA-Z]+)`, assignment(2, 0), engine.Keywords("=")),
		engine.NewManualRule("variable-interpolation", interpolate),

		rule("exponential", `(`+number+`)`+ws+`\^`+ws+`(`+number+`)`, exponential, engine.Keywords("^")),
		rule("multiplication", `(`+number+`)`+ws+`([*/%])`+ws+`(`+number+`)`, multiplication),
		rule("addition", `(`+number+`)`+ws+`([-+])`+ws+`(`+number+`)`, addition),

		rule("vector-multiplication", `(`+vector+`)`+ws+`([*x])`+ws+`(`+vector+`)`, vectorMultiplication, engine.Keywords("[")),
		rule("number-vector-multiplication", `(`+number+`)`+ws+`\*`+ws+`(`+vector+`)`, numberVectorMultiplication, engine.Keywords("[")),
		rule("vector-number-multiplication", `(`+vector+`)`+ws+`\*`+ws+`(`+number+`)`, vectorNumberMultiplication, engine.Keywords("[")),
		rule("vector-addition", `(`+vector+`)`+ws+`([-+])`+ws+`(`+vector+`)`, vectorAddition, engine.Keywords("[")),

		rule("number-comparison", `(`+number+`)`+ws+`(`+comparison+`)`+ws+`(`+number+`)`, numberComparison),
		rule("vector-comparison", `(`+vector+`)`+ws+`(`+comparison+`)`+ws+`(`+number+`)`, vectorComparison, engine.Keywords("[")),
		rule("logic-gate", `(`+boolean+`)`+ws+`(`+logicOperator+`)`+ws+`(`+boolean+`)`, logicGate, engine.Keywords("and", "or")),

		rule("ternary", `(`+boolean+`)`+ws+`\?`+ws+`([^:]+)`+ws+`:`+ws+`([^:]+)`, ternary, engine.Keywords("?")),

		rule("assignment-error", `(`+number+`)`+ws+`(=)`+ws+`(`+number+`)`, assignmentError, engine.Keywords("=")),
		rule("silent", `(silent)\{(.*)\}`, silent, engine.Keywords("silent")),
	}
}

func hexLiteral(_ *engine.Scope, ms []pattern.Match) engine.Result {
	v, err := strconv.ParseInt(ms[0].Group(0), 16, 64)
	if err != nil {
		return engine.Changed(FormatNumber(math.Inf(1)))
	}
	return engine.Changed(strconv.FormatInt(v, 10))
}

func vectorMapping(sc *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	values, err := ParseVector(f.Group(0))
	if err != nil {
		return engine.Changed(errComparison)
	}
	body := f.Group(1)

	out := Vector{}
	for _, v := range values {
		form := strings.ReplaceAll(body, "this", FormatNumber(v))
		res := strings.TrimSpace(sc.Execute(form).Text)
		if res != "remove" {
			out = append(out, ParseNumber(res))
		}
	}
	return engine.Changed(out.String())
}

func rangeLiteral(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	from := f.Captures[0].Float()
	to := f.Captures[2].Float()
	by := 1.0
	if len(f.Captures) > 3 {
		by = f.Captures[2].Float()
		to = f.Captures[3].Float()
	}
	if by == 0 || (to-from)/by < 0 || (to-from)/by >= MaxRangeLen {
		return engine.Changed(errRange)
	}

	out := Vector{}
	for i := 0; ; i++ {
		x := from + float64(i)*by
		if (by > 0 && x > to) || (by < 0 && x < to) {
			break
		}
		out = append(out, x)
	}
	return engine.Changed(out.String())
}

func postfixFunction(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	n := f.Captures[0].Int()
	switch f.Group(1) {
	case "!":
		if n < 0 {
			return engine.Changed(errFactorial)
		}
		result := 1.0
		for i := 2; i <= n; i++ {
			result *= float64(i)
		}
		return engine.Changed(FormatNumber(result))
	default:
		return engine.Changed(errPrefix)
	}
}

func prefixFunction(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	switch f.Group(0) {
	case "!":
		return engine.Changed(formatBool(!f.Captures[1].Bool()))
	default:
		return engine.Changed(errPrefix)
	}
}

func (c *Calculator) emptyFunction(_ *engine.Scope, ms []pattern.Match) engine.Result {
	switch ms[0].Group(0) {
	case "pi":
		return engine.Changed(FormatNumber(math.Pi))
	case "random":
		return engine.Changed(strconv.FormatUint(uint64(c.rng.Uint32()), 10))
	case "rand":
		return engine.Changed(FormatNumber(c.rng.Float64()))
	default:
		return engine.Changed(errUnaryFunction)
	}
}

var unaryFunctions = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"ln":    math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"acosh": math.Acosh,
	"atanh": math.Atanh,
}

func unaryFn(sc *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	fn, ok := unaryFunctions[f.Group(0)]
	if !ok {
		return engine.Changed(errUnaryFunction)
	}
	arg := ParseNumber(sc.Execute(f.Group(1)).Text)
	return engine.Changed(FormatNumber(fn(arg)))
}

func binaryFn(sc *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	e1 := sc.Execute(f.Group(1)).Text
	e2 := sc.Execute(f.Group(2)).Text

	switch f.Group(0) {
	case "power":
		return engine.Changed(FormatNumber(math.Pow(ParseNumber(e1), ParseNumber(e2))))
	case "log":
		return engine.Changed(FormatNumber(math.Log(ParseNumber(e1)) / math.Log(ParseNumber(e2))))
	case "sumproduct":
		a, errA := ParseVector(e1)
		b, errB := ParseVector(e2)
		if errA != nil || errB != nil || a.Dim() != b.Dim() {
			return engine.Changed(FormatNumber(0))
		}
		return engine.Changed(FormatNumber(a.Dot(b)))
	default:
		return engine.Changed(errBinaryFunction)
	}
}

func varFn(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	args, err := ParseVector(f.Group(1))
	if err != nil {
		return engine.Changed(errVarFunction)
	}
	switch f.Group(0) {
	case "sum":
		var result float64
		for _, a := range args {
			result += a
		}
		return engine.Changed(FormatNumber(result))
	case "product":
		result := 1.0
		for _, a := range args {
			result *= a
		}
		return engine.Changed(FormatNumber(result))
	default:
		return engine.Changed(errVarFunction)
	}
}

func brackets(_ *engine.Scope, ms []pattern.Match) engine.Result {
	return engine.Changed(ms[0].Group(0))
}

// assignment binds the capture at nameIdx to the value of the capture at
// valueIdx and reduces to the value.
func assignment(nameIdx, valueIdx int) engine.Action {
	return func(sc *engine.Scope, ms []pattern.Match) engine.Result {
		f := ms[0]
		if f.Group(1) != "=" {
			return engine.Unchanged()
		}
		value := sc.Execute(f.Group(valueIdx)).Text
		sc.Vars().Set(f.Group(nameIdx), value)
		return engine.Changed(value)
	}
}

// interpolate substitutes bound variables for every identifier that names
// one. Identifiers are maximal runs of ASCII letters, so a variable never
// replaces part of a longer word.
func interpolate(sc *engine.Scope, ms []pattern.Match) engine.Result {
	vars := sc.Vars()
	if vars.Len() == 0 {
		return engine.Unchanged()
	}
	text := ms[0].Text
	words, err := identifier.FindAll(text)
	if err != nil || len(words) == 0 {
		return engine.Unchanged()
	}

	var b strings.Builder
	last := 0
	for _, w := range words {
		value, ok := vars.Get(w.Text)
		if !ok || value == w.Text {
			continue
		}
		b.WriteString(text[last:w.Span.Start])
		b.WriteString(value)
		last = w.Span.End
	}
	if last == 0 {
		return engine.Unchanged()
	}
	b.WriteString(text[last:])
	return engine.Changed(b.String())
}

func exponential(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	return engine.Changed(FormatNumber(math.Pow(f.Captures[0].Float(), f.Captures[1].Float())))
}

func multiplication(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	a, b := f.Captures[0].Float(), f.Captures[2].Float()
	switch f.Group(1) {
	case "*":
		return engine.Changed(FormatNumber(a * b))
	case "/":
		return engine.Changed(FormatNumber(a / b))
	default:
		return engine.Changed(FormatNumber(math.Mod(a, b)))
	}
}

func addition(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	a, b := f.Captures[0].Float(), f.Captures[2].Float()
	if f.Group(1) == "-" {
		b = -b
	}
	return engine.Changed(FormatNumber(a + b))
}

func vectorMultiplication(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	a, errA := ParseVector(f.Group(0))
	b, errB := ParseVector(f.Group(2))
	if errA != nil || errB != nil {
		return engine.Changed(errVectorMul)
	}
	switch f.Group(1) {
	case "*":
		return engine.Changed(FormatNumber(a.Dot(b)))
	case "x":
		cp, err := a.Cross(b)
		if err != nil {
			return engine.Changed(errVectorMul)
		}
		return engine.Changed(cp.String())
	default:
		return engine.Changed(errVectorMul)
	}
}

func numberVectorMultiplication(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	v, err := ParseVector(f.Group(1))
	if err != nil {
		return engine.Changed(errVectorMul)
	}
	return engine.Changed(v.Scale(f.Captures[0].Float()).String())
}

func vectorNumberMultiplication(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	v, err := ParseVector(f.Group(0))
	if err != nil {
		return engine.Changed(errVectorMul)
	}
	return engine.Changed(v.Scale(f.Captures[1].Float()).String())
}

func vectorAddition(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	a, errA := ParseVector(f.Group(0))
	b, errB := ParseVector(f.Group(2))
	if errA != nil || errB != nil {
		return engine.Changed(errVectorAdd)
	}
	if f.Group(1) == "-" {
		return engine.Changed(a.Sub(b).String())
	}
	return engine.Changed(a.Add(b).String())
}

func compare(op string, a, b float64) (bool, bool) {
	switch op {
	case "<":
		return a < b, true
	case ">":
		return a > b, true
	case "==":
		return a == b, true
	case "!=":
		return a != b, true
	case "<=":
		return a <= b, true
	case ">=":
		return a >= b, true
	default:
		return false, false
	}
}

func numberComparison(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	result, ok := compare(f.Group(1), f.Captures[0].Float(), f.Captures[2].Float())
	if !ok {
		return engine.Changed(errComparison)
	}
	return engine.Changed(formatBool(result))
}

func vectorComparison(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	v, err := ParseVector(f.Group(0))
	if err != nil {
		return engine.Changed(errComparison)
	}
	op, b := f.Group(1), f.Captures[2].Float()
	if _, ok := compare(op, 0, 0); !ok {
		return engine.Changed(errComparison)
	}
	return engine.Changed(v.Filter(func(x float64) bool {
		keep, _ := compare(op, x, b)
		return keep
	}).String())
}

func logicGate(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	a, b := f.Captures[0].Bool(), f.Captures[2].Bool()
	switch f.Group(1) {
	case "or":
		return engine.Changed(formatBool(a || b))
	case "and":
		return engine.Changed(formatBool(a && b))
	case "xor":
		return engine.Changed(formatBool(a != b))
	case "nand":
		return engine.Changed(formatBool(!(a && b)))
	case "nor":
		return engine.Changed(formatBool(!(a || b)))
	case "xnor":
		return engine.Changed(formatBool(a == b))
	default:
		return engine.Changed(errLogicGate)
	}
}

func ternary(sc *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	branch := f.Group(2)
	if f.Captures[0].Bool() {
		branch = f.Group(1)
	}
	return engine.Changed(sc.Execute(strings.TrimSpace(branch)).Text)
}

func assignmentError(_ *engine.Scope, ms []pattern.Match) engine.Result {
	f := ms[0]
	return engine.Fatalf("{Assignment Error: cannot assign number %s to number %s}",
		FormatNumber(f.Captures[2].Float()), FormatNumber(f.Captures[0].Float()))
}

func silent(sc *engine.Scope, ms []pattern.Match) engine.Result {
	sc.Execute(ms[0].Group(1))
	return engine.Changed("")
}
