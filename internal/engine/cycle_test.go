package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleDetector_NewCycleDetector(t *testing.T) {
	cd := NewCycleDetector()
	require.NotNil(t, cd)
	assert.Equal(t, 0, cd.HistorySize())
}

func TestCycleDetector_WouldCycle_FirstOccurrence(t *testing.T) {
	cd := NewCycleDetector()

	// First occurrence should not be a cycle
	assert.False(t, cd.WouldCycle(StateHash("a", 0)))
}

func TestCycleDetector_WouldCycle_AfterRecord(t *testing.T) {
	cd := NewCycleDetector()

	cd.Record(StateHash("a", 0))

	assert.True(t, cd.WouldCycle(StateHash("a", 0)), "same state after record should be a cycle")
	assert.Equal(t, 1, cd.HistorySize())
}

func TestCycleDetector_DifferentCursor(t *testing.T) {
	cd := NewCycleDetector()

	cd.Record(StateHash("a", 0))

	// Same text at a different cursor is a different state
	assert.False(t, cd.WouldCycle(StateHash("a", 1)))
}

func TestStateHash_Stable(t *testing.T) {
	h1 := StateHash("1 + 2", 3)
	h2 := StateHash("1 + 2", 3)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// The cursor and text are separated, so shifting digits between them
	// does not collide.
	assert.NotEqual(t, StateHash("1", 11), StateHash("11", 1))
}
