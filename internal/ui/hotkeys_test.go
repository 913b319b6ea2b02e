package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakwood-commons/jqx/internal/config"
)

func TestHotkeysMarkdown(t *testing.T) {
	b := newTestBindings()
	require := assert.New(t)
	out := HotkeysMarkdown([]config.PanelBindings{{Name: config.PanelTable, Binder: b}})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal("## table", lines[0])
	require.Equal("| Action | Keys | Description |", lines[2])
	require.Equal("| up | `<up>` `C-p` | Move up |", lines[4])
	require.Equal("| fail | `x` |  |", lines[5])
}

func TestHotkeysMarkdownEscapesPipes(t *testing.T) {
	b := NewKeyBindings[*counter, string]()
	b.Add("pipe", "a | b", func(*counter) (string, error) { return "", nil }, "|")
	out := HotkeysMarkdown([]config.PanelBindings{{Name: "x", Binder: b}})
	assert.Contains(t, out, "| pipe | `\\|` | a \\| b |")
}

func TestHotkeysHTML(t *testing.T) {
	a, _ := newTestApp(t, config.Default(), "")
	out := HotkeysHTML(a.Bindings())
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2 id=\"global\">global</h2>")
	assert.Contains(t, out, "toggle_active")
}
