package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Action describes one bindable handler.
type Action struct {
	Name        string
	Description string
	Keys        []string
}

// Binder is a key binding table that accepts overrides by action name.
type Binder interface {
	Rebind(key, action string) error
	Actions() []Action
}

// PanelBindings names the binding table of one panel.
type PanelBindings struct {
	Name   string
	Binder Binder
}

// ApplyBindings installs the configured binding overrides. Unknown panels
// and unknown action names are reported as a *ConfigError.
func (c Config) ApplyBindings(panels []PanelBindings) error {
	byName := make(map[string]Binder, len(panels))
	for _, p := range panels {
		byName[p.Name] = p.Binder
	}
	for panel, keys := range c.Bindings {
		b, ok := byName[panel]
		if !ok {
			return &ConfigError{Err: fmt.Errorf("unknown panel %q in bindings", panel)}
		}
		for key, action := range keys {
			if err := b.Rebind(key, action); err != nil {
				return &ConfigError{Err: fmt.Errorf("bindings.%s: %w", panel, err)}
			}
		}
	}
	return nil
}

type option struct {
	key   string
	doc   string
	value func(Config) string
}

var options = []option{
	{
		key:   "float_precision",
		doc:   "Number of significant digits for floating point numbers",
		value: func(c Config) string { return strconv.Itoa(c.FloatPrecision) },
	},
	{
		key:   "max_cell_width",
		doc:   "Default maximum cell width",
		value: func(c Config) string { return strconv.Itoa(c.MaxCellWidth) },
	},
	{
		key: "copy_command",
		doc: `Shell command that copies its stdin to the clipboard, e.g.
* "wl-copy 2> /dev/null"
* "xclip -selection clipboard"
When empty, the system clipboard is used, falling back to an OSC 52 escape sequence.`,
		value: func(c Config) string { return strconv.Quote(c.CopyCommand) },
	},
	{
		key:   "append_history_command",
		doc:   "Shell command that appends {} (a quoted jqx command line) to the shell history",
		value: func(c Config) string { return strconv.Quote(c.AppendHistoryCommand) },
	},
	{
		key:   "start_at_prompt",
		doc:   "Start with the prompt focused instead of the table",
		value: func(c Config) string { return strconv.FormatBool(c.StartAtPrompt) },
	},
	{
		key:   "jq_binary",
		doc:   "jq executable used to evaluate filters",
		value: func(c Config) string { return strconv.Quote(c.JQBinary) },
	},
	{
		key:   "prelude",
		doc:   "jq definitions prepended to every filter",
		value: func(c Config) string { return strconv.Quote(c.Prelude) },
	},
	{
		key:   "toggle_timeout_ms",
		doc:   "How long to wait for a result when leaving the prompt",
		value: func(c Config) string { return strconv.Itoa(c.ToggleTimeoutMS) },
	},
}

func commentOut(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("# " + line + "\n")
	}
	return b.String()
}

// Example renders a fully commented-out TOML config listing every option
// with its default and every action with its default keys.
func Example(panels []PanelBindings) string {
	def := Default()
	var b strings.Builder
	b.WriteString("# Example configuration for jqx\n")
	for _, o := range options {
		b.WriteString("\n")
		b.WriteString(commentOut(o.doc))
		fmt.Fprintf(&b, "%s = %s\n", o.key, o.value(def))
	}
	for _, p := range panels {
		fmt.Fprintf(&b, "\n[bindings.%s]\n", p.Name)
		for _, a := range p.Binder.Actions() {
			b.WriteString(commentOut(a.Name))
			if a.Description != "" {
				b.WriteString(commentOut(a.Description))
			}
			for _, k := range a.Keys {
				fmt.Fprintf(&b, "%s = %s\n", strconv.Quote(k), strconv.Quote(a.Name))
			}
		}
	}
	return commentOut(b.String())
}
