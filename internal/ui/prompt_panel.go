package ui

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jqx/internal/history"
	"github.com/oakwood-commons/jqx/internal/table"
)

// PromptState is a snapshot of the prompt. Cursor is a rune offset and does
// not take part in history comparisons.
type PromptState struct {
	Content string
	Cursor  int
}

func samePromptContent(a, b PromptState) bool { return a.Content == b.Content }

var wordChar = regexp.MustCompile(`^[0-9a-zA-Z_-]$`)

func isWordChar(r rune) bool { return wordChar.MatchString(string(r)) }

// PromptPanel is a single-line editor with emacs-style bindings and linear
// undo history.
type PromptPanel struct {
	region   *Region
	content  []rune
	cursor   int
	active   bool
	history  *history.History[PromptState]
	copy     func(string) error
	Bindings *KeyBindings[*PromptPanel, Event]
}

// NewPromptPanel returns a prompt holding content with the cursor at its end.
// copy puts text on the clipboard.
func NewPromptPanel(region *Region, content string, copy func(string) error) *PromptPanel {
	p := &PromptPanel{
		region:   region,
		content:  []rune(content),
		copy:     copy,
		Bindings: promptBindings(),
	}
	p.cursor = len(p.content)
	p.history = history.New(p.State(), samePromptContent)
	return p
}

func promptBindings() *KeyBindings[*PromptPanel, Event] {
	b := NewKeyBindings[*PromptPanel, Event]()
	b.Add("undo", "", func(p *PromptPanel) (Event, error) {
		p.Undo()
		return nil, nil
	}, "C-_")
	b.Add("redo", "", func(p *PromptPanel) (Event, error) {
		p.Redo()
		return nil, nil
	}, "M-_")
	b.Add("copy", "Copy current prompt to clipboard", func(p *PromptPanel) (Event, error) {
		if err := p.copy(p.Text()); err != nil {
			return nil, err
		}
		return StatusUpdate{Message: "Copied."}, nil
	}, "M-w")
	b.Add("kill_line", "Delete everything to the right of the cursor", func(p *PromptPanel) (Event, error) {
		p.deleteTo(len(p.content))
		return nil, nil
	}, "C-k")
	b.Add("delete_next_char", "", func(p *PromptPanel) (Event, error) {
		p.deleteTo(p.cursor + 1)
		return nil, nil
	}, KeyDelete, "C-d")
	b.Add("delete_next_word", "", func(p *PromptPanel) (Event, error) {
		p.deleteTo(p.nextWord())
		return nil, nil
	}, "M-"+KeyDelete, "M-d", "C-"+KeyDelete)
	b.Add("delete_prev_char", "", func(p *PromptPanel) (Event, error) {
		p.deleteTo(p.cursor - 1)
		return nil, nil
	}, KeyBackspace)
	b.Add("delete_prev_word", "", func(p *PromptPanel) (Event, error) {
		p.deleteTo(p.prevWord())
		return nil, nil
	}, "M-"+KeyBackspace, "C-"+KeyBackspace)
	b.Add("forward_char", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(p.cursor + 1)
		return nil, nil
	}, KeyRight, "C-f")
	b.Add("forward_word", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(p.nextWord())
		return nil, nil
	}, "C-"+KeyRight, "M-"+KeyRight, "M-f")
	b.Add("backward_char", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(p.cursor - 1)
		return nil, nil
	}, KeyLeft, "C-b")
	b.Add("backward_word", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(p.prevWord())
		return nil, nil
	}, "C-"+KeyLeft, "M-"+KeyLeft, "M-b")
	b.Add("end", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(len(p.content))
		return nil, nil
	}, KeyEnd, "C-e")
	b.Add("home", "", func(p *PromptPanel) (Event, error) {
		p.setCursor(0)
		return nil, nil
	}, KeyHome, "C-a")
	return b
}

// Text returns the prompt content.
func (p *PromptPanel) Text() string { return string(p.content) }

// Cursor returns the cursor as a rune offset.
func (p *PromptPanel) Cursor() int { return p.cursor }

// State returns a snapshot of content and cursor.
func (p *PromptPanel) State() PromptState {
	return PromptState{Content: string(p.content), Cursor: p.cursor}
}

// CanRedo reports whether redo would change the prompt.
func (p *PromptPanel) CanRedo() bool { return p.history.CanRedo() }

func (p *PromptPanel) setState(s PromptState) {
	p.content = []rune(s.Content)
	p.setCursor(s.Cursor)
}

// Update commits s as an undoable edit.
func (p *PromptPanel) Update(s PromptState) {
	p.history.Push(p.State())
	p.setState(s)
	p.history.Push(p.State())
}

// UpdateText commits text with the cursor at its end.
func (p *PromptPanel) UpdateText(text string) {
	p.Update(PromptState{Content: text, Cursor: utf8.RuneCountInString(text)})
}

// Undo restores the previous distinct content.
func (p *PromptPanel) Undo() {
	p.setState(p.history.Undo(p.State()))
}

// Redo moves forward through undone edits.
func (p *PromptPanel) Redo() {
	p.setState(p.history.Redo(p.State()))
}

// Insert types text at the cursor. Typing is not an undo point by itself.
func (p *PromptPanel) Insert(text string) {
	r := []rune(text)
	content := make([]rune, 0, len(p.content)+len(r))
	content = append(content, p.content[:p.cursor]...)
	content = append(content, r...)
	content = append(content, p.content[p.cursor:]...)
	p.content = content
	p.setCursor(p.cursor + len(r))
}

func (p *PromptPanel) deleteTo(until int) {
	until = max(0, min(until, len(p.content)))
	lo, hi := min(p.cursor, until), max(p.cursor, until)
	content := make([]rune, 0, len(p.content)-(hi-lo))
	content = append(content, p.content[:lo]...)
	content = append(content, p.content[hi:]...)
	p.Update(PromptState{Content: string(content), Cursor: lo})
}

func (p *PromptPanel) nextWord() int {
	i := p.cursor
	for i < len(p.content) && !isWordChar(p.content[i]) {
		i++
	}
	for i < len(p.content) && isWordChar(p.content[i]) {
		i++
	}
	return i
}

func (p *PromptPanel) prevWord() int {
	i := p.cursor - 1
	for i >= 0 && !isWordChar(p.content[i]) {
		i--
	}
	for i >= 0 && isWordChar(p.content[i]) {
		i--
	}
	return i + 1
}

func (p *PromptPanel) setCursor(c int) {
	p.cursor = max(0, min(len(p.content), c))
	p.updateBase()
}

// updateBase scrolls horizontally so the cursor stays visible.
func (p *PromptPanel) updateBase() {
	w := p.region.Width()
	if w <= 0 {
		return
	}
	cur := runewidth.StringWidth(string(p.content[:p.cursor]))
	total := runewidth.StringWidth(string(p.content))
	base := p.region.Base.X
	if cur < base {
		base = cur
	}
	if cur >= base+w {
		base = cur - w + 1
	}
	if total < base+w {
		base = max(0, total-w+1)
	}
	p.region.Base = Point{X: base}
}

func (p *PromptPanel) Resize() { p.updateBase() }

func (p *PromptPanel) HandleKey(key string) ([]Event, error) {
	ev, ok, err := p.Bindings.Handle(key, p)
	if err != nil {
		return nil, err
	}
	if ok {
		return events(ev), nil
	}
	if r, size := utf8.DecodeRuneInString(key); size == len(key) && r != '\n' && unicode.IsPrint(r) {
		p.Insert(key)
		return nil, nil
	}
	return []Event{KeyPress{Key: key}}, nil
}

func (p *PromptPanel) Draw() {
	p.region.InsertText(Point{}, string(p.content), Style{})
	if p.active {
		cur := runewidth.StringWidth(string(p.content[:p.cursor]))
		width := 1
		if p.cursor < len(p.content) {
			width = max(1, runewidth.RuneWidth(p.content[p.cursor]))
		}
		p.region.SetStyle(Point{X: cur}, width, Style{Attr: table.AttrReverse})
	}
}

func (p *PromptPanel) SetActive(active bool) { p.active = active }
