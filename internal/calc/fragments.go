package calc

import "github.com/roach88/rewrite/internal/pattern"

// Pattern fragments shared by the calculator rules. All rules compile in
// free-spacing mode, so literal spaces in these sources are ignored.
var (
	number  = pattern.Real
	integer = pattern.Int
	boolean = pattern.Bool
	ws      = pattern.Space

	vector     = `\[` + pattern.List(number, ",") + `\]`
	operand    = `(?:` + vector + `|` + number + `|[a-zA-Z]+)`
	expression = pattern.List(operand, `[-+*/^=]`)

	emptyFunction  = `(?:pi|random|rand)`
	unaryFunction  = `(?:sqrt?|ln|log10|log2|a?sinh?|a?cosh?|a?tanh?|floor|ceil|round)`
	binaryFunction = `(?:power|log|sumproduct)`
	varFunction    = `(?:sum|product)`
	comparison     = `(?:>=|<=|==|!=|>|<)`
	logicOperator  = `(?:and|or|xor|nand|nor|xnor)`
	closure        = `\{([^{}]+)\}`
)
