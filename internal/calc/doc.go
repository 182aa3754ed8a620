// Package calc is an expression calculator built entirely from rewrite
// rules.
//
// There is no parser. Each operator, function and statement form is a rule
// whose pattern recognizes the reduced form of its operands (plain numbers,
// booleans or vector literals) and whose action replaces the match with the
// computed value. Rule order encodes precedence: functions and brackets
// reduce first, then assignments and variable interpolation, then
// exponentiation, multiplication, addition, vector arithmetic, comparisons,
// logic and the ternary operator.
//
//	c := calc.New()
//	c.Execute(ctx, "5 * (3 + 2 * 2) / sqrt(5 * 7 - power(10, cos(0))) + sum([1, 2, 3])")
//	// "13"
//
// Numbers print in shortest form ("14", "0.5"). Vectors print as
// "[1, 2, 3]". Variables live in the calculator's engine.Vars and persist
// across Execute calls.
package calc
