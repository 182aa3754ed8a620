package calc

// Error texts are substituted into the expression like any other value, so
// evaluation carries on around them.
const (
	errPrefix         = "{Expression Error: Prefix Function}"
	errVarFunction    = "{Expression Error: Var Arg Function}"
	errBinaryFunction = "{Expression Error: Binary Function}"
	errUnaryFunction  = "{Expression Error: Unary Function}"
	errRange          = "{Expression Error: Range}"
	errVectorMul      = "{Expression Error: Vector Multiplication}"
	errVectorAdd      = "{Expression Error: Vector Addition}"
	errComparison     = "{Expression Error: Number Comparison}"
	errLogicGate      = "{Expression Error: Logic Gate}"
	errFactorial      = "{factorial applies to n >= 0}"
)

// MaxRangeLen bounds the number of elements a range literal may expand to.
const MaxRangeLen = 100000
