package engine

// DefaultMaxSteps is the step quota applied when none is configured.
const DefaultMaxSteps = 10000

// DefaultMaxDepth is the recursion limit applied when none is configured.
const DefaultMaxDepth = 256

// QuotaEnforcer counts rule firings for a run and enforces a maximum.
//
// One enforcer is shared by every recursion level of a run, so nested
// Scope.Execute calls draw from the same budget as the top level. A
// limit of zero or less disables the check.
//
// CRITICAL DISTINCTION from cycle detection:
//   - Cycle detection: catches a text returning to a prior state (A → B → A)
//   - Step quota: catches unbounded growth (A → AA → AAA → ...)
type QuotaEnforcer struct {
	maxSteps int // Maximum allowed firings
	current  int // Firings so far
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates it against the limit.
//
// Returns a RuntimeError with ErrCodeStepsExceeded once the quota is spent.
func (q *QuotaEnforcer) Check(runID, rule string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return NewStepsError(runID, rule, q.current, q.maxSteps)
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit. Zero means unlimited.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}
