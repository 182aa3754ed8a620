package calc

import (
	"strconv"
	"strings"
)

// FormatNumber renders v in the shortest form that parses back to v, with
// no exponent: 14, 0.5, -3.25.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseNumber parses s as a float after trimming whitespace. Unparsable
// input yields 0, which is what operand captures that failed to reduce
// evaluate to.
func ParseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
