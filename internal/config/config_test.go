package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewrite/internal/pattern"
)

// chdir switches to a fresh directory so no stray rewrite.yaml is found.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "warn", "")
	flags.String("format", "text", "")
	flags.Int("max-steps", 0, "")
	flags.Bool("trace", false, "")
	flags.String("regex-engine", "", "")
	flags.Duration("regex-timeout", 0, "")
	flags.String("ruleset", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Engine.MaxSteps)
	assert.Equal(t, 256, cfg.Engine.MaxDepth)
	assert.False(t, cfg.Engine.Trace)
	assert.True(t, cfg.Engine.Restart)
	assert.False(t, cfg.Engine.DetectCycles)
	assert.Equal(t, "regexp2", cfg.Pattern.Engine)
	assert.Equal(t, time.Duration(0), cfg.Pattern.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, FormatText, cfg.Output.Format)
	assert.Empty(t, cfg.REPL.History)
	assert.Empty(t, cfg.FileUsed)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rewrite.yaml"), []byte(`
engine:
  max_steps: 50
  detect_cycles: true
pattern:
  engine: re2
  timeout: 2s
repl:
  history: /tmp/rewrite_history
`), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "rewrite.yaml", cfg.FileUsed)
	assert.Equal(t, 50, cfg.Engine.MaxSteps)
	assert.Equal(t, 256, cfg.Engine.MaxDepth)
	assert.True(t, cfg.Engine.DetectCycles)
	assert.Equal(t, "re2", cfg.Pattern.Engine)
	assert.Equal(t, 2*time.Second, cfg.Pattern.Timeout)
	assert.Equal(t, "/tmp/rewrite_history", cfg.REPL.History)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
max_depth = 8
restart = false

[output]
format = "json"
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, 8, cfg.Engine.MaxDepth)
	assert.False(t, cfg.Engine.Restart)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
}

func TestLoad_UnsupportedFileType(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "rewrite.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file type")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t)
	_, err := Load("nope.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file nope.yaml")
}

func TestLoad_Precedence(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rewrite.yaml"), []byte(`
engine:
  max_steps: 50
  max_depth: 10
log:
  level: info
`), 0o644))

	t.Setenv("REWRITE_ENGINE__MAX_STEPS", "70")
	t.Setenv("REWRITE_LOG__LEVEL", "error")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--max-steps=90", "--trace", "--ruleset=x.cue"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Engine.MaxSteps, "flag beats env and file")
	assert.Equal(t, 10, cfg.Engine.MaxDepth, "file beats defaults")
	assert.Equal(t, "error", cfg.Log.Level, "env beats file")
	assert.True(t, cfg.Engine.Trace)
	assert.Equal(t, FormatText, cfg.Output.Format, "unset flags keep lower layers")
}

func TestLoad_FlagDuration(t *testing.T) {
	chdir(t)
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--regex-timeout=150ms", "--regex-engine=re2"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, cfg.Pattern.Timeout)
	assert.Equal(t, "re2", cfg.Pattern.Engine)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"negative steps", map[string]string{"REWRITE_ENGINE__MAX_STEPS": "-1"}, "engine.max_steps must be non-negative"},
		{"negative depth", map[string]string{"REWRITE_ENGINE__MAX_DEPTH": "-3"}, "engine.max_depth must be non-negative"},
		{"unknown regex engine", map[string]string{"REWRITE_PATTERN__ENGINE": "pcre"}, "pattern.engine"},
		{"unknown log level", map[string]string{"REWRITE_LOG__LEVEL": "loud"}, "log.level"},
		{"unknown format", map[string]string{"REWRITE_OUTPUT__FORMAT": "xml"}, "output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{
		Engine:  EngineConfig{MaxSteps: 5, MaxDepth: 2, Restart: true},
		Pattern: PatternConfig{Engine: "re2", Timeout: time.Second},
	}
	assert.Len(t, cfg.EngineOptions(), 5)

	var o pattern.Options
	for _, opt := range cfg.PatternOptions() {
		opt(&o)
	}
	assert.Equal(t, pattern.EngineRE2, o.Engine)
	assert.Equal(t, time.Second, o.Timeout)
}
