package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden files live, relative to the test package.
const GoldenDir = "testdata/golden"

// TraceSnapshot is the golden form of a scenario run: each case's input,
// outcome and trace. Pass/fail state is left out so a golden file only
// changes when engine behavior does.
type TraceSnapshot struct {
	Scenario string         `json:"scenario"`
	RunID    string         `json:"run_id"`
	Cases    []SnapshotCase `json:"cases"`
}

// SnapshotCase is one case of a TraceSnapshot.
type SnapshotCase struct {
	Input  string       `json:"input"`
	Output string       `json:"output"`
	Kind   string       `json:"kind"`
	Trace  []TraceEvent `json:"trace"`
}

// Snapshot renders result as indented JSON for golden comparison.
func Snapshot(result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		Scenario: result.Scenario,
		RunID:    result.RunID,
		Cases:    make([]SnapshotCase, len(result.Cases)),
	}
	for i, c := range result.Cases {
		snap.Cases[i] = SnapshotCase{
			Input:  c.Input,
			Output: c.Output,
			Kind:   c.Kind,
			Trace:  c.Trace,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, result)
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Scenario, data)
	return nil
}

// ErrGoldenMismatch is wrapped by CheckGolden when a snapshot differs from
// its golden file.
var ErrGoldenMismatch = errors.New("golden mismatch")

// CheckGolden compares result against dir/{name}.golden outside of go
// test. With update set the file is written instead.
func CheckGolden(dir string, result *Result, update bool) error {
	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, result.Scenario+".golden")
	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating golden dir: %w", err)
		}
		return os.WriteFile(path, data, 0o644)
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading golden file: %w", err)
	}
	if diff := cmp.Diff(string(want), string(data)); diff != "" {
		return fmt.Errorf("%w: %s (-want +got):\n%s", ErrGoldenMismatch, path, diff)
	}
	return nil
}
