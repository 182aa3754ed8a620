// Package config loads CLI configuration from defaults, a YAML or TOML
// file, REWRITE_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import "time"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the resolved CLI configuration.
type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Pattern PatternConfig `koanf:"pattern"`
	Log     LogConfig     `koanf:"log"`
	Output  OutputConfig  `koanf:"output"`
	REPL    REPLConfig    `koanf:"repl"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// EngineConfig holds engine limits and tracing.
type EngineConfig struct {
	MaxSteps     int  `koanf:"max_steps"`
	MaxDepth     int  `koanf:"max_depth"`
	Trace        bool `koanf:"trace"`
	Restart      bool `koanf:"restart"`
	DetectCycles bool `koanf:"detect_cycles"`
}

// PatternConfig selects the regex engine.
type PatternConfig struct {
	Engine  string        `koanf:"engine"`
	Timeout time.Duration `koanf:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Format string `koanf:"format"`
}

// REPLConfig holds interactive session settings.
type REPLConfig struct {
	// History is the history file path. Empty disables history.
	History string `koanf:"history"`
}
