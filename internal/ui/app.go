package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jqx/internal/config"
	"github.com/oakwood-commons/jqx/internal/jsonvalue"
	"github.com/oakwood-commons/jqx/internal/navigator"
	"github.com/oakwood-commons/jqx/internal/query"
	"github.com/oakwood-commons/jqx/internal/table"
	"github.com/oakwood-commons/jqx/pkg/settings"
)

const (
	pollInterval = 10 * time.Millisecond
	statusHeight = 2
	promptHead   = "> "
)

// Engine evaluates the prompt expression in the background.
type Engine interface {
	Update(expression string) bool
	Reload()
	Status(block bool, timeout time.Duration) *query.Result
	Latest() *query.Result
	Expression() string
	Running() bool
	RunPlain(ctx context.Context, expression string) (jsonvalue.Value, error)
}

type pollMsg struct{}

// App is the Bubble Tea model: a table, a prompt line and a two line status
// area. Keys go to the active panel first and whatever it does not consume
// goes through the global bindings.
type App struct {
	ctx    context.Context
	cfg    config.Config
	engine Engine
	log    logr.Logger
	args   []string

	canvas *Canvas
	table  *TablePanel
	head   *TextPanel
	prompt *PromptPanel
	status *TextPanel
	panels []Panel
	// cycle[0] is the active panel.
	cycle [2]Panel

	global *KeyBindings[*App, Event]

	current string
	states  map[string]TableState

	spinner spinner.Model
	cmds    []tea.Cmd
	frame   string
	dirty   bool
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(log logr.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithArgs sets the command line arguments used when appending to the
// shell history.
func WithArgs(args []string) Option {
	return func(a *App) { a.args = args }
}

// WithNoColor renders without colors and dim or underline attributes.
func WithNoColor(noColor bool) Option {
	return func(a *App) { a.canvas.NoColor = noColor }
}

// NewApp builds the panels for expression. Binding overrides are applied by
// the caller through Bindings.
func NewApp(ctx context.Context, cfg config.Config, engine Engine, expression string, opts ...Option) *App {
	canvas := NewCanvas(0, 0)
	a := &App{
		ctx:     ctx,
		cfg:     cfg,
		engine:  engine,
		log:     logr.Discard(),
		canvas:  canvas,
		states:  map[string]TableState{},
		current: expression,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		dirty:   true,
	}
	a.table = NewTablePanel(NewRegion(canvas), cfg.MaxCellWidth, cfg.FloatPrecision)
	a.head = NewTextPanel(NewRegion(canvas), promptHead)
	a.prompt = NewPromptPanel(NewRegion(canvas), expression, a.copy)
	a.status = NewTextPanel(NewRegion(canvas), "")
	a.panels = []Panel{a.table, a.head, a.prompt, a.status}
	a.cycle = [2]Panel{a.table, a.prompt}
	if cfg.StartAtPrompt {
		a.cycle = [2]Panel{a.prompt, a.table}
	}
	a.cycle[0].SetActive(true)
	a.global = globalBindings()
	a.addTableActions()
	for _, o := range opts {
		o(a)
	}
	return a
}

func globalBindings() *KeyBindings[*App, Event] {
	b := NewKeyBindings[*App, Event]()
	b.Add("quit", "Leave jqx", func(*App) (Event, error) {
		return Quit{}, nil
	}, "C-g", "C-d")
	b.Add("toggle_active", "Toggle active panel between prompt and table", func(a *App) (Event, error) {
		a.toggle()
		return nil, nil
	}, "M-o", "C-o")
	b.Add("undo", "", func(a *App) (Event, error) {
		a.prompt.Undo()
		return nil, nil
	}, "C-_", KeyEsc)
	b.Add("redo", "", func(a *App) (Event, error) {
		a.prompt.Redo()
		return nil, nil
	}, "M-_")
	b.Add("append_history", "Append the jqx call with the current filter to the shell history", func(a *App) (Event, error) {
		return a.appendHistory()
	}, "M-"+KeyRet)
	b.Add("reload", "Re-run the current filter", func(a *App) (Event, error) {
		a.engine.Reload()
		return nil, nil
	}, "g", KeyRet)
	return b
}

// addTableActions registers the table actions that need the query engine.
func (a *App) addTableActions() {
	a.table.Bindings.Add("copy_output", "Copy output of the current filter to clipboard", func(*TablePanel) (Event, error) {
		v, err := a.engine.RunPlain(a.ctx, a.engine.Expression())
		if err != nil {
			return nil, err
		}
		return a.copyValue(v, false)
	}, "M-w")
	a.table.Bindings.Add("copy_cell", "Copy content of the current cell to clipboard, strings as plain text", func(t *TablePanel) (Event, error) {
		expr := a.engine.Expression()
		if expr == "" {
			expr = "."
		}
		v, err := a.engine.RunPlain(a.ctx, navigator.AppendSelector(expr, t.CellSelector()))
		if err != nil {
			return nil, err
		}
		return a.copyValue(v, true)
	}, "w")
}

func (a *App) copyValue(v jsonvalue.Value, plainStrings bool) (Event, error) {
	text := string(jsonvalue.Marshal(v))
	if s, ok := v.(jsonvalue.String); ok && plainStrings {
		text = string(s)
	}
	if err := a.copy(text); err != nil {
		return nil, err
	}
	return StatusUpdate{Message: "Copied."}, nil
}

// copy uses copy_command when configured, then the system clipboard, and
// finally an OSC 52 sequence written by the terminal renderer.
func (a *App) copy(text string) error {
	if a.cfg.CopyCommand != "" {
		return RunShell(a.ctx, a.cfg.CopyCommand, text+"\n")
	}
	if err := CopyToClipboard(text); err != nil {
		a.log.V(1).Info("system clipboard unavailable, using OSC 52", "error", err.Error())
		a.cmds = append(a.cmds, tea.SetClipboard(text))
	}
	return nil
}

func (a *App) appendHistory() (Event, error) {
	line := CommandLine(settings.CliBinaryName, a.args, a.prompt.Text())
	a.log.V(1).Info("appending to shell history", "command", line)
	if err := RunShell(a.ctx, HistoryCommand(a.cfg.AppendHistoryCommand, line), ""); err != nil {
		return StatusUpdate{Message: err.Error()}, nil
	}
	return StatusUpdate{Message: "Added to atuin history."}, nil
}

// Bindings lists the binding tables by panel name for config overrides and
// the example config.
func (a *App) Bindings() []config.PanelBindings {
	return []config.PanelBindings{
		{Name: config.PanelGlobal, Binder: a.global},
		{Name: config.PanelPrompt, Binder: a.prompt.Bindings},
		{Name: config.PanelTable, Binder: a.table.Bindings},
	}
}

// Prompt returns the prompt text.
func (a *App) Prompt() string { return a.prompt.Text() }

// Status returns the status text.
func (a *App) Status() string { return a.status.Content }

func (a *App) active() Panel { return a.cycle[0] }

// toggle switches between table and prompt. Leaving the prompt waits for
// the running query and stays put when it has not produced a table.
func (a *App) toggle() {
	if a.active() == a.prompt {
		a.poll(true)
	}
	if a.active() == a.prompt {
		latest := a.engine.Latest()
		if latest == nil || latest.Table == nil {
			return
		}
	}
	a.cycle[0], a.cycle[1] = a.cycle[1], a.cycle[0]
	a.cycle[1].SetActive(false)
	a.cycle[0].SetActive(true)
}

// poll collects a finished query. A result with a table replaces the table;
// the outgoing view state is remembered under the outgoing expression.
func (a *App) poll(block bool) bool {
	res := a.engine.Status(block, a.cfg.ToggleTimeout())
	if res == nil {
		return false
	}
	a.status.Content = res.Message
	if res.Table != nil {
		a.states[a.current] = a.table.State()
		a.current = a.engine.Expression()
		var state *TableState
		if st, ok := a.states[a.current]; ok {
			state = &st
		}
		a.table.SetContent(res.Table, state)
	}
	return true
}

func (a *App) resize(width, height int) {
	a.canvas.Resize(width, height)
	a.table.region.Pos = Point{}
	a.table.region.Size = Point{Y: max(0, height-statusHeight-1), X: width}
	row := max(0, height-statusHeight-1)
	a.head.region.Pos = Point{Y: row}
	a.head.region.Size = Point{Y: 1, X: min(2, width)}
	a.prompt.region.Pos = Point{Y: row, X: 2}
	a.prompt.region.Size = Point{Y: 1, X: max(0, width-2)}
	a.status.region.Pos = Point{Y: max(0, height-statusHeight)}
	a.status.region.Size = Point{Y: min(statusHeight, height), X: width}
	for _, p := range a.panels {
		p.Resize()
	}
}

// handleKey routes one key label and reports whether the session ends.
// Handler errors and panics become status messages.
func (a *App) handleKey(key string) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error(fmt.Errorf("%v", r), "key handler panicked", "key", key)
			a.status.Content = fmt.Sprintf("internal error: %v", r)
			quit = false
		}
	}()

	evs, err := a.active().HandleKey(key)
	if err != nil {
		a.reportError(err)
		return false
	}
	for _, ev := range evs {
		if kp, ok := ev.(KeyPress); ok {
			res, _, err := a.global.Handle(kp.Key, a)
			if err != nil {
				a.reportError(err)
				continue
			}
			ev = res
		}
		switch ev := ev.(type) {
		case Quit:
			return true
		case Select:
			a.prompt.UpdateText(navigator.AppendSelector(a.prompt.Text(), ev.Selector))
		case AppendFilter:
			a.prompt.UpdateText(navigator.AppendFilter(a.prompt.Text(), ev.Filter))
		case StatusUpdate:
			a.status.Content = ev.Message
		}
	}
	return false
}

func (a *App) reportError(err error) {
	var ie *InteractionError
	if !errors.As(err, &ie) {
		a.log.V(1).Info("action failed", "error", err.Error())
	}
	a.status.Content = err.Error()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Init starts the first query and the poll loop.
func (a *App) Init() tea.Cmd {
	a.engine.Update(a.prompt.Text())
	return tea.Batch(tick(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		a.dirty = true
	case tea.KeyPressMsg:
		if a.handleKey(KeyLabel(msg.Key())) {
			return a, tea.Quit
		}
		a.engine.Update(a.prompt.Text())
		a.dirty = true
	case tea.PasteMsg:
		if a.active() == a.prompt {
			a.prompt.Insert(msg.Content)
			a.engine.Update(a.prompt.Text())
			a.dirty = true
		}
	case pollMsg:
		if a.poll(false) {
			a.dirty = true
		}
		a.cmds = append(a.cmds, tick())
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.cmds = append(a.cmds, cmd)
		if a.engine.Running() {
			a.dirty = true
		}
	}
	cmds := a.cmds
	a.cmds = nil
	return a, tea.Batch(cmds...)
}

func (a *App) draw() {
	a.canvas.Clear()
	for _, p := range a.panels {
		p.Draw()
	}
	if a.engine.Running() && a.status.Content == "" {
		a.status.region.InsertText(Point{}, ansi.Strip(a.spinner.View()), Style{Color: table.ColorMagenta})
	}
	a.frame = a.canvas.Render()
	a.dirty = false
}

func (a *App) View() tea.View {
	if a.dirty {
		a.draw()
	}
	v := tea.NewView(a.frame)
	v.AltScreen = true
	v.KeyboardEnhancements.ReportEventTypes = true
	return v
}
