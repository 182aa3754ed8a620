package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// CycleDetector tracks the states one execution has passed through.
//
// A state is the pair (text, cursor): the text the engine holds and the
// index of the rule it will try next. Because rules are deterministic,
// reaching the same state twice means the execution will loop forever.
//
// Example cycle:
//
//	"a" → rule swap-ab fires → "b" → rule swap-ba fires → "a" (again!)
//	→ swap-ab would fire again... ← CYCLE DETECTED
//
// Each call to the engine loop (including every nested Scope.Execute) owns
// its own detector. States are stored as hashes so long texts do not pin
// memory.
type CycleDetector struct {
	seen map[string]bool
}

// NewCycleDetector creates a new cycle detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{seen: make(map[string]bool)}
}

// WouldCycle reports whether the state has already been recorded.
func (c *CycleDetector) WouldCycle(stateHash string) bool {
	return c.seen[stateHash]
}

// Record marks the state as visited.
func (c *CycleDetector) Record(stateHash string) {
	c.seen[stateHash] = true
}

// HistorySize returns the number of recorded states.
func (c *CycleDetector) HistorySize() int {
	return len(c.seen)
}

// StateHash returns a stable identifier for (text, cursor).
//
// The hash is domain-separated so that it can never collide with other
// hashes computed over the same text.
func StateHash(text string, cursor int) string {
	h := sha256.New()
	h.Write([]byte("rewrite/state/v1\x00"))
	h.Write([]byte(strconv.Itoa(cursor)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
