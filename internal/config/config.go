// Package config loads the persisted jqx settings and key binding overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFloatPrecision is the significant digit budget for floats.
	DefaultFloatPrecision = 10
	// DefaultMaxCellWidth caps column widths unless full width is toggled.
	DefaultMaxCellWidth = 50
	// DefaultAppendHistoryCommand appends a command line to the atuin history.
	// {} is replaced with the shell-quoted command line.
	DefaultAppendHistoryCommand = "atuin history end --exit 0 -- $(atuin history start -- {})"
	// DefaultPrelude defines expand($k), used by the expand actions of the
	// table. It replaces a nested object or array at key $k by its entries:
	// object parents get keys "$k.<sub>", array parents get the elements
	// spliced in place. Anything else is returned unchanged.
	DefaultPrelude = `def expand($k): ([.[$k]?][0] | type) as $t | if $t != "object" and $t != "array" then . ` +
		`elif type == "object" then to_entries | map(if .key == $k then .key as $p | .value | to_entries[] | .key = "\($p).\(.key)" else . end) | from_entries ` +
		`else .[:$k] + [.[$k][]] + .[$k + 1:] end;`
	// DefaultToggleTimeout bounds the wait for a result when leaving the prompt.
	DefaultToggleTimeout = 2 * time.Second
)

// Panel names used in the bindings table.
const (
	PanelGlobal = "global"
	PanelPrompt = "prompt"
	PanelTable  = "table"
)

// Config is the persisted configuration.
type Config struct {
	// Bindings maps panel name to key label to action name.
	Bindings             map[string]map[string]string `toml:"bindings,omitempty" yaml:"bindings,omitempty"`
	FloatPrecision       int                          `toml:"float_precision" yaml:"float_precision"`
	MaxCellWidth         int                          `toml:"max_cell_width" yaml:"max_cell_width"`
	CopyCommand          string                       `toml:"copy_command" yaml:"copy_command"`
	AppendHistoryCommand string                       `toml:"append_history_command" yaml:"append_history_command"`
	StartAtPrompt        bool                         `toml:"start_at_prompt" yaml:"start_at_prompt"`
	JQBinary             string                       `toml:"jq_binary" yaml:"jq_binary"`
	Prelude              string                       `toml:"prelude" yaml:"prelude"`
	ToggleTimeoutMS      int                          `toml:"toggle_timeout_ms" yaml:"toggle_timeout_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FloatPrecision:       DefaultFloatPrecision,
		MaxCellWidth:         DefaultMaxCellWidth,
		AppendHistoryCommand: DefaultAppendHistoryCommand,
		JQBinary:             "jq",
		Prelude:              DefaultPrelude,
		ToggleTimeoutMS:      int(DefaultToggleTimeout / time.Millisecond),
	}
}

// ToggleTimeout returns the configured wait for a result when leaving the prompt.
func (c Config) ToggleTimeout() time.Duration {
	if c.ToggleTimeoutMS <= 0 {
		return DefaultToggleTimeout
	}
	return time.Duration(c.ToggleTimeoutMS) * time.Millisecond
}

// ErrUnknownAction is wrapped by binders that do not know an action name.
var ErrUnknownAction = errors.New("unknown action")

// ConfigError reports an invalid configuration file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid config: %v", e.Err)
	}
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DefaultPath returns $XDG_CONFIG_HOME/jqx/config.toml, falling back to
// ~/.config/jqx/config.toml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jqx", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "jqx", "config.toml")
	}
	return filepath.Join(home, ".config", "jqx", "config.toml")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads path over the defaults. Files ending in .yaml or .yml are read
// as YAML, anything else as TOML. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := decode(data, isYAML(path), &cfg); err != nil {
		return cfg, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

func decode(data []byte, asYAML bool, cfg *Config) error {
	if asYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// LoadOrInit loads path. When path does not exist and writeExample is true,
// example is written there and the defaults are returned.
func LoadOrInit(path string, writeExample bool, example string) (Config, error) {
	cfg, err := Load(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if !writeExample {
		return Default(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Default(), fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(example), 0o644); err != nil {
		return Default(), fmt.Errorf("failed to write example config: %w", err)
	}
	return Default(), nil
}

// Marshal encodes cfg as "toml" or "yaml".
func Marshal(cfg Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return toml.Marshal(cfg)
	case "yaml", "yml":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (use toml or yaml)", format)
	}
}
