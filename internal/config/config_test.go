package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBinder struct {
	actions []Action
	rebinds map[string]string
}

func (f *fakeBinder) Rebind(key, action string) error {
	for _, a := range f.actions {
		if a.Name == action {
			if f.rebinds == nil {
				f.rebinds = map[string]string{}
			}
			f.rebinds[key] = action
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownAction, action)
}

func (f *fakeBinder) Actions() []Action { return f.actions }

func newFakeBinder() *fakeBinder {
	return &fakeBinder{actions: []Action{
		{Name: "quit", Description: "Leave jqx", Keys: []string{"C-g", "C-d"}},
		{Name: "reload", Keys: []string{"g"}},
	}}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.FloatPrecision)
	assert.Equal(t, 50, cfg.MaxCellWidth)
	assert.Equal(t, "jq", cfg.JQBinary)
	assert.Equal(t, 2*time.Second, cfg.ToggleTimeout())
	assert.False(t, cfg.StartAtPrompt)
	assert.Equal(t, DefaultPrelude, cfg.Prelude)
}

func TestDefaultPreludeExpand(t *testing.T) {
	jq, err := exec.LookPath("jq")
	if err != nil {
		t.Skip("jq not installed")
	}
	tests := []struct {
		name   string
		input  string
		filter string
		want   string
	}{
		{"object row", `{"a":1,"meta":{"x":1,"y":2},"z":3}`, `expand("meta")`, `{"a":1,"meta.x":1,"meta.y":2,"z":3}`},
		{"array row", `[1,[2,3],4]`, `expand(1)`, `[1,2,3,4]`},
		{"object in array", `[[1,2],{"k":"v"}]`, `expand(1)`, `[[1,2],"v"]`},
		{"scalar is kept", `{"a":1}`, `expand("a")`, `{"a":1}`},
		{"column", `[{"id":1,"tags":["a","b"]},{"id":2}]`, `map_values(expand("tags"))`, `[{"id":1,"tags.0":"a","tags.1":"b"},{"id":2}]`},
		{"column of mixed rows", `[[1],"s"]`, `map_values(expand("x"))`, `[[1],"s"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(jq, "-c", DefaultPrelude+"\n"+tt.filter)
			cmd.Stdin = strings.NewReader(tt.input)
			out, err := cmd.Output()
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(string(out)))
		})
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
float_precision = 5
max_cell_width = 20
start_at_prompt = true
toggle_timeout_ms = 500

[bindings.global]
"C-q" = "quit"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.FloatPrecision)
	assert.Equal(t, 20, cfg.MaxCellWidth)
	assert.True(t, cfg.StartAtPrompt)
	assert.Equal(t, 500*time.Millisecond, cfg.ToggleTimeout())
	assert.Equal(t, "quit", cfg.Bindings["global"]["C-q"])
	// Unset options keep their defaults.
	assert.Equal(t, DefaultAppendHistoryCommand, cfg.AppendHistoryCommand)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `max_cell_width: 12
copy_command: "wl-copy 2> /dev/null"
bindings:
  table:
    x: reload
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxCellWidth)
	assert.Equal(t, "wl-copy 2> /dev/null", cfg.CopyCommand)
	assert.Equal(t, "reload", cfg.Bindings["table"]["x"])
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("bogus = 1\n"), 0o600))
	_, err := Load(tomlPath)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, tomlPath, cfgErr.Path)

	yamlPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("bogus: 1\n"), 0o600))
	_, err = Load(yamlPath)
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadOrInitWritesExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	example := Example([]PanelBindings{{Name: PanelGlobal, Binder: newFakeBinder()}})

	cfg, err := LoadOrInit(path, true, example)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, example, string(written))

	// The written example is entirely commented out, so it loads as defaults.
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOrInitWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadOrInit(path, false, "unused")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExampleUncommentsToValidConfig(t *testing.T) {
	example := Example([]PanelBindings{
		{Name: PanelGlobal, Binder: newFakeBinder()},
		{Name: PanelTable, Binder: newFakeBinder()},
	})
	for _, line := range strings.Split(strings.TrimRight(example, "\n"), "\n") {
		if line != "" {
			assert.True(t, strings.HasPrefix(line, "#"), "line %q", line)
		}
	}
	assert.Contains(t, example, `# "C-g" = "quit"`)
	assert.Contains(t, example, "# [bindings.table]")
	assert.Contains(t, example, "# # Leave jqx")

	// Stripping one level of comments yields a config with the defaults.
	var b strings.Builder
	for _, line := range strings.Split(example, "\n") {
		b.WriteString(strings.TrimPrefix(line, "# "))
		b.WriteString("\n")
	}
	var cfg Config
	require.NoError(t, toml.Unmarshal([]byte(b.String()), &cfg))
	assert.Equal(t, DefaultMaxCellWidth, cfg.MaxCellWidth)
	assert.Equal(t, DefaultPrelude, cfg.Prelude)
	assert.Equal(t, "quit", cfg.Bindings["global"]["C-d"])
	assert.Equal(t, "reload", cfg.Bindings["table"]["g"])
}

func TestApplyBindings(t *testing.T) {
	global := newFakeBinder()
	cfg := Default()
	cfg.Bindings = map[string]map[string]string{"global": {"C-q": "quit"}}
	require.NoError(t, cfg.ApplyBindings([]PanelBindings{{Name: PanelGlobal, Binder: global}}))
	assert.Equal(t, "quit", global.rebinds["C-q"])

	cfg.Bindings = map[string]map[string]string{"global": {"C-q": "explode"}}
	err := cfg.ApplyBindings([]PanelBindings{{Name: PanelGlobal, Binder: global}})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrUnknownAction)

	cfg.Bindings = map[string]map[string]string{"sidebar": {"x": "quit"}}
	err = cfg.ApplyBindings([]PanelBindings{{Name: PanelGlobal, Binder: global}})
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "unknown panel")
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(Default(), "toml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "max_cell_width = 50")

	out, err = Marshal(Default(), "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "max_cell_width: 50")

	_, err = Marshal(Default(), "ini")
	assert.Error(t, err)
}
