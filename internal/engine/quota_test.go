package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQuotaEnforcer_WithinLimit tests normal operation within quota.
func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	// Should allow 10 checks
	for i := 0; i < 10; i++ {
		err := q.Check("run-1", "rule")
		assert.NoError(t, err, "step %d should be allowed", i+1)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

// TestQuotaEnforcer_ExceedsLimit tests quota exceeded error.
func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("run-1", "grow"))
	}

	// 6th should fail
	err := q.Check("run-1", "grow")
	require.Error(t, err)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeStepsExceeded, re.Code)
	assert.Equal(t, "run-1", re.RunID)
	assert.Equal(t, "grow", re.Rule)
	assert.Equal(t, "6", re.Details["steps"])
	assert.Equal(t, "5", re.Details["max_steps"])
}

// TestQuotaEnforcer_Unlimited tests that a zero limit never fails.
func TestQuotaEnforcer_Unlimited(t *testing.T) {
	q := NewQuotaEnforcer(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Check("run-1", "rule"))
	}
	assert.Equal(t, 100, q.Current())
}

// TestQuotaEnforcer_Reset tests resetting the counter.
func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		_ = q.Check("run-1", "rule")
	}
	assert.Equal(t, 5, q.Current())

	q.Reset()
	assert.Equal(t, 0, q.Current())

	// Should allow 5 more
	for i := 0; i < 5; i++ {
		assert.NoError(t, q.Check("run-1", "rule"))
	}
}

// TestRuntimeError_Error tests error message formatting.
func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "run and rule",
			err:  NewStepsError("run-abc", "grow", 11, 10),
			want: "STEPS_EXCEEDED: run exceeded max steps (11 > 10) (run=run-abc, rule=grow)",
		},
		{
			name: "run only",
			err:  NewDepthError("run-abc", 5, 4),
			want: "DEPTH_EXCEEDED: recursion exceeded max depth (5 > 4) (run=run-abc)",
		},
		{
			name: "bare",
			err:  &RuntimeError{Code: ErrCodeCycleDetected, Message: "loop"},
			want: "CYCLE_DETECTED: loop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

// TestRuntimeError_Predicates tests the Is* helpers, including wrapped errors.
func TestRuntimeError_Predicates(t *testing.T) {
	steps := NewStepsError("r", "x", 2, 1)
	depth := NewDepthError("r", 2, 1)
	cycle := NewCycleError("r", "x", "h")
	match := NewMatchError("r", "x", assert.AnError)

	assert.True(t, IsStepsError(steps))
	assert.False(t, IsStepsError(depth))
	assert.True(t, IsDepthError(depth))
	assert.True(t, IsCycleError(cycle))
	assert.True(t, IsMatchError(match))
	assert.ErrorIs(t, match, assert.AnError)
	assert.False(t, IsCycleError(nil))
}
