package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

type testResponse struct {
	Status string     `json:"status"`
	Data   TestResult `json:"data"`
	Error  *CLIError  `json:"error"`
}

func TestTestCommand_Pass(t *testing.T) {
	stdout, _, err := execute(t, "", "test", "testdata/scenarios/arith.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ arith_labels")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_Failure(t *testing.T) {
	stdout, _, err := execute(t, "", "test", "testdata/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "✓ arith_labels")
	assert.Contains(t, stdout, "✗ arith_wrong")
	assert.Contains(t, stdout, `got "result: 2", want "result: 3"`)
	assert.Contains(t, stdout, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	stdout, _, err := execute(t, "", "test", "testdata/scenarios", "--filter", "ar*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_JSON(t *testing.T) {
	stdout, _, err := execute(t, "", "--format", "json", "test", "testdata/scenarios")
	require.Error(t, err)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)

	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	// Results keep the order the files were found in.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "arith_labels", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.Equal(t, "arith_wrong", resp.Data.Scenarios[1].Name)
	assert.False(t, resp.Data.Scenarios[1].Pass)
}

func TestTestCommand_Golden(t *testing.T) {
	stdout, _, err := execute(t, "", "--format", "json", "test", harnessScenarios)
	require.NoError(t, err, stdout)

	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Passed)

	golden := map[string]string{}
	for _, s := range resp.Data.Scenarios {
		golden[s.Name] = s.Golden
	}
	assert.Equal(t, "match", golden["calculator_precedence"])
	assert.Equal(t, "match", golden["mixer_order"])
	assert.Equal(t, "", golden["greeting"])
}

func TestTestCommand_GoldenUpdate(t *testing.T) {
	dir := t.TempDir()
	scenario := filepath.Join(harnessScenarios, "mixer.yaml")

	_, _, err := execute(t, "", "test", scenario, "--golden-dir", dir)
	require.Error(t, err, "missing golden file fails the scenario")

	stdout, _, err := execute(t, "", "test", scenario, "--golden-dir", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ mixer_order (golden updated)")

	written, err := os.ReadFile(filepath.Join(dir, "mixer_order.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/mixer_order.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	_, _, err = execute(t, "", "test", scenario, "--golden-dir", dir)
	require.NoError(t, err)
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\nruleset: builtin:calculator\nbogus: 1\n"), 0o644))

	stdout, _, err := execute(t, "", "test", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ bad.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_NoScenarios(t *testing.T) {
	stdout, _, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestGoldenDir(t *testing.T) {
	assert.Equal(t, "out", goldenDir("out", "a/scenarios/x.yaml"))
	assert.Equal(t, filepath.Join("a", "golden"), goldenDir("", filepath.Join("a", "scenarios", "x.yaml")))
}
