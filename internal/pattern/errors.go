package pattern

import "fmt"

// CompileError reports a pattern source that the selected engine rejected.
// It is returned at configuration time, never from FindAll.
type CompileError struct {
	Source string
	Engine Engine
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pattern %q (%s): %v", e.Source, e.Engine, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// MatchError reports a failure while searching, which only happens when a
// match timeout is configured and exceeded.
type MatchError struct {
	Source string
	Err    error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("matching %q: %v", e.Source, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
