package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jqx/internal/config"
	"github.com/oakwood-commons/jqx/internal/jsonvalue"
	"github.com/oakwood-commons/jqx/internal/query"
)

// fakeEngine hands out queued results instead of running jq.
type fakeEngine struct {
	expression string
	started    bool
	updates    []string
	reloads    int
	results    []*query.Result
	latest     *query.Result
	running    bool

	plain      jsonvalue.Value
	plainErr   error
	plainExprs []string
}

func (f *fakeEngine) Update(expression string) bool {
	if f.started && expression == f.expression {
		return false
	}
	f.started = true
	f.expression = expression
	f.updates = append(f.updates, expression)
	return true
}

func (f *fakeEngine) Reload() { f.reloads++ }

func (f *fakeEngine) Status(bool, time.Duration) *query.Result {
	if len(f.results) == 0 {
		return nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	f.latest = res
	return res
}

func (f *fakeEngine) Latest() *query.Result { return f.latest }
func (f *fakeEngine) Expression() string    { return f.expression }
func (f *fakeEngine) Running() bool         { return f.running }

func (f *fakeEngine) RunPlain(_ context.Context, expression string) (jsonvalue.Value, error) {
	f.plainExprs = append(f.plainExprs, expression)
	return f.plain, f.plainErr
}

func newTestApp(t *testing.T, cfg config.Config, expression string, opts ...Option) (*App, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	a := NewApp(context.Background(), cfg, eng, expression, opts...)
	a.Init()
	a.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	return a, eng
}

func (f *fakeEngine) queue(t *testing.T, doc string) {
	t.Helper()
	f.results = append(f.results, &query.Result{Table: project(t, doc)})
}

func press(a *App, k tea.Key) tea.Cmd {
	_, cmd := a.Update(tea.KeyPressMsg(k))
	return cmd
}

func TestAppStartsQuery(t *testing.T) {
	_, eng := newTestApp(t, config.Default(), ".a")
	assert.Equal(t, []string{".a"}, eng.updates)
}

func TestAppEnterCellAppendsSelector(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), "")
	eng.queue(t, `{"a":1,"b":"x"}`)
	a.Update(pollMsg{})

	press(a, tea.Key{Code: tea.KeyEnter})
	assert.Equal(t, ".a", a.Prompt())
	assert.Equal(t, ".a", eng.expression)

	// Undo returns to the empty filter.
	press(a, tea.Key{Code: tea.KeyEscape})
	assert.Equal(t, "", a.Prompt())
}

func TestAppQueryErrorKeepsTable(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), "")
	eng.queue(t, `[1,2,3]`)
	a.Update(pollMsg{})
	first := a.table.Content()
	require.NotNil(t, first)

	eng.results = append(eng.results, &query.Result{Message: "jq: error: boom"})
	a.Update(pollMsg{})
	assert.Equal(t, "jq: error: boom", a.Status())
	assert.Same(t, first, a.table.Content())
}

func TestAppQuit(t *testing.T) {
	a, _ := newTestApp(t, config.Default(), "")
	cmd := press(a, tea.Key{Code: 'g', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppToggle(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), "")
	require.Equal(t, Panel(a.table), a.active())

	// Leaving the table never waits.
	a.handleKey("M-o")
	assert.Equal(t, Panel(a.prompt), a.active())

	// No table yet: stay at the prompt.
	a.handleKey("C-o")
	assert.Equal(t, Panel(a.prompt), a.active())

	eng.queue(t, `[1]`)
	a.handleKey("C-o")
	assert.Equal(t, Panel(a.table), a.active())
	assert.NotNil(t, a.table.Content())
}

func TestAppToggleSuppressedOnError(t *testing.T) {
	cfg := config.Default()
	cfg.StartAtPrompt = true
	a, eng := newTestApp(t, cfg, "bogus(")
	require.Equal(t, Panel(a.prompt), a.active())

	eng.results = append(eng.results, &query.Result{Message: "jq: error: syntax"})
	a.handleKey("M-o")
	assert.Equal(t, Panel(a.prompt), a.active())
	assert.Equal(t, "jq: error: syntax", a.Status())
}

func TestAppPromptTypingUpdatesEngine(t *testing.T) {
	cfg := config.Default()
	cfg.StartAtPrompt = true
	a, eng := newTestApp(t, cfg, ".")
	press(a, tea.Key{Code: 'a', Text: "a"})
	press(a, tea.Key{Code: 'b', Text: "b"})
	assert.Equal(t, ".ab", a.Prompt())
	assert.Equal(t, []string{".", ".a", ".ab"}, eng.updates)

	a.Update(tea.PasteMsg{Content: "[0]"})
	assert.Equal(t, ".ab[0]", a.Prompt())
}

func TestAppInteractionErrorBecomesStatus(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), "")
	eng.queue(t, `42`)
	a.Update(pollMsg{})

	assert.False(t, a.handleKey("K"))
	assert.Equal(t, "Not an array or object", a.Status())
	assert.Equal(t, "", a.Prompt())
}

func TestAppTableFilters(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), ".items")
	eng.queue(t, `[{"a":1},{"a":2}]`)
	a.Update(pollMsg{})

	a.handleKey(KeyDown)
	a.handleKey("K")
	assert.Equal(t, ".items | del(.[1])", a.Prompt())
}

func TestAppRemembersTableState(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), "")
	eng.queue(t, `[1,2,3]`)
	a.Update(pollMsg{})
	a.handleKey(KeyDown)
	require.Equal(t, 1, a.table.cursor.Y)

	a.prompt.UpdateText(".[0:1]")
	eng.Update(a.Prompt())
	eng.queue(t, `[1]`)
	a.Update(pollMsg{})
	assert.Equal(t, 0, a.table.cursor.Y)

	a.prompt.Undo()
	eng.Update(a.Prompt())
	eng.queue(t, `[1,2,3]`)
	a.Update(pollMsg{})
	assert.Equal(t, 1, a.table.cursor.Y)
}

func TestAppCopyCell(t *testing.T) {
	var copied []string
	orig := copyToClipboardFn
	copyToClipboardFn = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { copyToClipboardFn = orig })

	a, eng := newTestApp(t, config.Default(), "")
	eng.queue(t, `{"a":1,"b":"x"}`)
	a.Update(pollMsg{})
	a.handleKey(KeyDown)

	eng.plain = jsonvalue.String("x")
	a.handleKey("w")
	assert.Equal(t, []string{". | .b"}, eng.plainExprs)
	assert.Equal(t, "Copied.", a.Status())

	eng.plain = jsonvalue.Object{{Key: "a", Value: jsonvalue.Int(1)}}
	a.handleKey("M-w")
	assert.Equal(t, []string{"x", `{"a":1}`}, copied)

	eng.plainErr = errors.New("jq: error: broken")
	a.handleKey("w")
	assert.Equal(t, "jq: error: broken", a.Status())
}

func TestAppCopyFallsBackToOSC52(t *testing.T) {
	orig := copyToClipboardFn
	copyToClipboardFn = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { copyToClipboardFn = orig })

	cfg := config.Default()
	cfg.StartAtPrompt = true
	a, _ := newTestApp(t, cfg, ".a")
	cmd := press(a, tea.Key{Code: 'w', Mod: tea.ModAlt})
	assert.Equal(t, "Copied.", a.Status())
	assert.NotNil(t, cmd)
}

func TestAppCopyCommand(t *testing.T) {
	var gotCmd, gotStdin string
	orig := runShellFn
	runShellFn = func(_ context.Context, command, stdin string) error {
		gotCmd, gotStdin = command, stdin
		return nil
	}
	t.Cleanup(func() { runShellFn = orig })

	cfg := config.Default()
	cfg.CopyCommand = "wl-copy"
	cfg.StartAtPrompt = true
	a, _ := newTestApp(t, cfg, ".a")
	a.handleKey("M-w")
	assert.Equal(t, "wl-copy", gotCmd)
	assert.Equal(t, ".a\n", gotStdin)
}

func TestAppAppendHistory(t *testing.T) {
	var gotCmd string
	orig := runShellFn
	runShellFn = func(_ context.Context, command, _ string) error {
		gotCmd = command
		return nil
	}
	t.Cleanup(func() { runShellFn = orig })

	cfg := config.Default()
	cfg.StartAtPrompt = true
	a, _ := newTestApp(t, cfg, ".a", WithArgs([]string{"data.json", "-c", ".old"}))
	a.handleKey("M-" + KeyRet)
	assert.Equal(t, "Added to atuin history.", a.Status())
	assert.Equal(t, HistoryCommand(config.DefaultAppendHistoryCommand, "jqx data.json --command .a"), gotCmd)

	runShellFn = func(context.Context, string, string) error { return errors.New("atuin: not found") }
	a.handleKey("M-" + KeyRet)
	assert.Equal(t, "atuin: not found", a.Status())
}

func TestAppReload(t *testing.T) {
	cfg := config.Default()
	cfg.StartAtPrompt = true
	a, eng := newTestApp(t, cfg, ".")
	a.handleKey(KeyRet)
	a.handleKey("g")
	assert.Equal(t, 1, eng.reloads, "g is typed into the prompt")
	assert.Equal(t, ".g", a.Prompt())
}

func TestAppRecoversFromPanics(t *testing.T) {
	a, _ := newTestApp(t, config.Default(), "")
	a.table.Bindings.Add("boom", "", func(*TablePanel) (Event, error) {
		panic("kaboom")
	}, "x")
	assert.False(t, a.handleKey("x"))
	assert.Equal(t, "internal error: kaboom", a.Status())
}

func TestAppBindingOverrides(t *testing.T) {
	a, _ := newTestApp(t, config.Default(), "")
	cfg := config.Default()
	cfg.Bindings = map[string]map[string]string{config.PanelGlobal: {"C-q": "quit"}}
	require.NoError(t, cfg.ApplyBindings(a.Bindings()))
	assert.True(t, a.handleKey("C-q"))

	example := config.Example(a.Bindings())
	assert.Contains(t, example, "# [bindings.table]")
	assert.Contains(t, example, `# "M-w" = "copy_output"`)
}

func TestAppLayout(t *testing.T) {
	a, eng := newTestApp(t, config.Default(), ".a")
	eng.results = append(eng.results, &query.Result{Message: "null"})
	a.Update(pollMsg{})
	a.View()

	assert.Equal(t, "> .a", strings.TrimRight(a.canvas.Line(9), " "))
	assert.Equal(t, "null", strings.TrimRight(a.canvas.Line(10), " "))
	assert.Equal(t, Point{Y: 9, X: 40}, a.table.region.Size)
}
