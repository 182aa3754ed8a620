package testutil

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roach88/rewrite/internal/engine"
)

// SequenceGenerator hands out run IDs of the form "<prefix>-<n>", starting
// at 1.
//
// Unlike engine.FixedGenerator it never runs out, and unlike
// engine.StaticGenerator every run gets its own ID. Reset rewinds the
// sequence so the same test can run again with identical IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator for prefix. An empty prefix
// becomes "run".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next run ID.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Current returns how many IDs have been handed out.
func (g *SequenceGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset rewinds the sequence. The next Generate returns "<prefix>-1".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// EngineOptions returns the options every package test starts from: a
// silent logger and the fixed run ID.
func EngineOptions(runID string, extra ...engine.Option) []engine.Option {
	return append([]engine.Option{
		engine.WithLogger(zerolog.Nop()),
		engine.WithRunIDs(engine.StaticGenerator(runID)),
	}, extra...)
}
