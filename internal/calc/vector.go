package calc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Vector is a Euclidean vector of float64 components.
type Vector []float64

// ErrDimension is returned when an operation needs vectors of a particular
// or matching dimension.
var ErrDimension = errors.New("vector dimension mismatch")

// ParseVector parses a literal of the form "[1, 2.5, -3]".
func ParseVector(s string) (Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("not a vector literal: %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return Vector{}, nil
	}
	parts := strings.Split(inner, ",")
	v := make(Vector, len(parts))
	for i, p := range parts {
		v[i] = ParseNumber(p)
	}
	return v, nil
}

// UnitVector returns the vector of the given dimension with a 1 at index
// at and 0 elsewhere.
func UnitVector(dimension, at int) Vector {
	v := make(Vector, dimension)
	v[at] = 1
	return v
}

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v) }

// Norm returns the Euclidean length.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Add returns the component-wise sum. The result has the length of the
// shorter operand.
func (v Vector) Add(w Vector) Vector {
	n := min(len(v), len(w))
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		out[i] = v[i] + w[i]
	}
	return out
}

// Neg returns -v.
func (v Vector) Neg() Vector {
	return v.Scale(-1)
}

// Sub returns v - w.
func (v Vector) Sub(w Vector) Vector {
	return v.Add(w.Neg())
}

// Dot returns the inner product over the shared components.
func (v Vector) Dot(w Vector) float64 {
	var sum float64
	for i := 0; i < min(len(v), len(w)); i++ {
		sum += v[i] * w[i]
	}
	return sum
}

// Scale multiplies every component by k.
func (v Vector) Scale(k float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

// Cross returns the cross product. Both vectors must be three-dimensional.
func (v Vector) Cross(w Vector) (Vector, error) {
	if len(v) != 3 || len(w) != 3 {
		return nil, fmt.Errorf("cross product of %d- and %d-dimensional vectors: %w", len(v), len(w), ErrDimension)
	}
	return Vector{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}, nil
}

// IsParallel reports whether w is a scalar multiple of v.
func (v Vector) IsParallel(w Vector) bool {
	if len(v) != len(w) {
		return false
	}
	if len(v) < 2 {
		return true
	}
	factor := v[0] / w[0]
	for i := 1; i < len(v); i++ {
		if v[i]/w[i] != factor {
			return false
		}
	}
	return true
}

// Filter returns the components for which keep is true.
func (v Vector) Filter(keep func(float64) bool) Vector {
	out := Vector{}
	for _, x := range v {
		if keep(x) {
			out = append(out, x)
		}
	}
	return out
}

// String renders the vector as "[1, 2.5, -3]".
func (v Vector) String() string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = FormatNumber(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
