package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/rewrite/internal/engine"
	"github.com/roach88/rewrite/internal/logging"
	"github.com/roach88/rewrite/internal/pattern"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// levels: REWRITE_ENGINE__MAX_STEPS sets engine.max_steps.
const EnvPrefix = "REWRITE_"

// configNames are searched in the working directory when no config file
// is given.
var configNames = []string{"rewrite.yaml", "rewrite.yml", "rewrite.toml"}

// flagKeys maps flag names to config keys. Flags not listed here are not
// configuration.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"format":        "output.format",
	"max-steps":     "engine.max_steps",
	"max-depth":     "engine.max_depth",
	"trace":         "engine.trace",
	"restart":       "engine.restart",
	"detect-cycles": "engine.detect_cycles",
	"regex-engine":  "pattern.engine",
	"regex-timeout": "pattern.timeout",
	"history":       "repl.history",
}

// Defaults returns the default configuration values keyed by config key.
func Defaults() map[string]any {
	return map[string]any{
		"engine.max_steps":     engine.DefaultMaxSteps,
		"engine.max_depth":     engine.DefaultMaxDepth,
		"engine.trace":         false,
		"engine.restart":       true,
		"engine.detect_cycles": false,
		"pattern.engine":       string(pattern.EngineBacktrack),
		"pattern.timeout":      "0s",
		"log.level":            logging.DefaultLevel,
		"output.format":        FormatText,
		"repl.history":         "",
	}
}

// findConfigFile returns explicit, or the first default config file in
// the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file type %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Load resolves the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		parser, err := parserFor(used)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(used), parser); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// REWRITE_ENGINE__MAX_STEPS -> engine.max_steps
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Engine.MaxSteps < 0 {
		return fmt.Errorf("engine.max_steps must be non-negative, got %d", c.Engine.MaxSteps)
	}
	if c.Engine.MaxDepth < 0 {
		return fmt.Errorf("engine.max_depth must be non-negative, got %d", c.Engine.MaxDepth)
	}
	if _, err := pattern.ParseEngine(c.Pattern.Engine); err != nil {
		return fmt.Errorf("pattern.engine: %w", err)
	}
	if c.Pattern.Timeout < 0 {
		return fmt.Errorf("pattern.timeout must be non-negative, got %s", c.Pattern.Timeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatText, FormatJSON, c.Output.Format)
	}
	return nil
}

// EngineOptions converts the engine section to engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithMaxSteps(c.Engine.MaxSteps),
		engine.WithMaxDepth(c.Engine.MaxDepth),
		engine.WithTrace(c.Engine.Trace),
		engine.WithRestart(c.Engine.Restart),
		engine.WithCycleDetection(c.Engine.DetectCycles),
	}
}

// PatternOptions converts the pattern section to pattern options.
func (c *Config) PatternOptions() []pattern.Option {
	eng, _ := pattern.ParseEngine(c.Pattern.Engine)
	opts := []pattern.Option{pattern.WithEngine(eng)}
	if c.Pattern.Timeout > 0 {
		opts = append(opts, pattern.WithTimeout(c.Pattern.Timeout))
	}
	return opts
}
