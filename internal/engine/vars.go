package engine

import (
	"sort"
	"sync"
)

// Vars is a string-keyed symbol table owned by an engine.
//
// Actions read and write it through Scope.Vars. The table outlives single
// executions, so values assigned while evaluating one input are visible to
// the next. It is safe for concurrent use, but an engine running the same
// table from several goroutines will see interleaved assignments.
type Vars struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVars creates an empty table.
func NewVars() *Vars {
	return &Vars{values: make(map[string]string)}
}

// Get returns the value bound to name.
func (v *Vars) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

// Set binds name to value, replacing any previous binding.
func (v *Vars) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Delete removes the binding for name.
func (v *Vars) Delete(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, name)
}

// Len returns the number of bindings.
func (v *Vars) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.values)
}

// Reset removes every binding.
func (v *Vars) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values = make(map[string]string)
}

// Names returns the bound names, longest first and then alphabetically.
//
// This is the order substitution must use so that a name never clobbers a
// longer name that contains it ("x" inside "xx").
func (v *Vars) Names() []string {
	v.mu.RLock()
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	v.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// Snapshot returns a copy of the bindings.
func (v *Vars) Snapshot() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}
