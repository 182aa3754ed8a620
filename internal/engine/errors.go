package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error that aborted an engine run.
//
// Runtime errors include:
//   - Steps exceeded: the run fired more rules than the step quota allows
//   - Depth exceeded: Scope.Execute nested deeper than the depth limit
//   - Cycle detected: the same (text, cursor) state was reached twice
//   - Match failed: a pattern could not be evaluated (e.g. backtrack timeout)
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Rule names the rule involved, when there is one.
	Rule string

	// StateHash identifies the repeated state (for cycle errors).
	StateHash string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStepsExceeded indicates the run exceeded the step quota.
	ErrCodeStepsExceeded RuntimeErrorCode = "STEPS_EXCEEDED"

	// ErrCodeDepthExceeded indicates recursion went past the depth limit.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeCycleDetected indicates a (text, cursor) state repeated.
	ErrCodeCycleDetected RuntimeErrorCode = "CYCLE_DETECTED"

	// ErrCodeMatchFailed indicates a pattern failed to evaluate.
	ErrCodeMatchFailed RuntimeErrorCode = "MATCH_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.Rule != "" {
		return fmt.Sprintf("%s: %s (run=%s, rule=%s)", e.Code, e.Message, e.RunID, e.Rule)
	}
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsStepsError returns true if the error is a step quota error.
// Uses errors.As to handle wrapped errors.
func IsStepsError(err error) bool { return hasCode(err, ErrCodeStepsExceeded) }

// IsDepthError returns true if the error is a recursion depth error.
func IsDepthError(err error) bool { return hasCode(err, ErrCodeDepthExceeded) }

// IsCycleError returns true if the error is a cycle detection error.
func IsCycleError(err error) bool { return hasCode(err, ErrCodeCycleDetected) }

// IsMatchError returns true if the error is a pattern evaluation error.
func IsMatchError(err error) bool { return hasCode(err, ErrCodeMatchFailed) }

// NewStepsError creates a RuntimeError for an exhausted step quota.
func NewStepsError(runID, rule string, steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStepsExceeded,
		Message: fmt.Sprintf("run exceeded max steps (%d > %d)", steps, maxSteps),
		RunID:   runID,
		Rule:    rule,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

// NewDepthError creates a RuntimeError for runaway recursion.
func NewDepthError(runID string, depth, maxDepth int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("recursion exceeded max depth (%d > %d)", depth, maxDepth),
		RunID:   runID,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", depth),
			"max_depth": fmt.Sprintf("%d", maxDepth),
		},
	}
}

// NewCycleError creates a RuntimeError for a repeated state.
func NewCycleError(runID, rule, stateHash string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeCycleDetected,
		Message:   "rewrite returned to a previously seen text",
		RunID:     runID,
		Rule:      rule,
		StateHash: stateHash,
	}
}

// NewMatchError creates a RuntimeError wrapping a pattern failure.
func NewMatchError(runID, rule string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMatchFailed,
		Message: err.Error(),
		RunID:   runID,
		Rule:    rule,
		Err:     err,
	}
}
