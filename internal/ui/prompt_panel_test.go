package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jqx/internal/table"
)

func newTestPrompt(t *testing.T, content string, width int) (*PromptPanel, *[]string) {
	t.Helper()
	canvas := NewCanvas(width+2, 1)
	region := NewRegion(canvas)
	region.Pos = Point{X: 2}
	region.Size = Point{Y: 1, X: width}
	var copied []string
	p := NewPromptPanel(region, content, func(s string) error {
		copied = append(copied, s)
		return nil
	})
	p.Resize()
	return p, &copied
}

func pressKeys(t *testing.T, p Panel, keys ...string) []Event {
	t.Helper()
	var out []Event
	for _, k := range keys {
		evs, err := p.HandleKey(k)
		require.NoError(t, err, "key %q", k)
		out = append(out, evs...)
	}
	return out
}

func TestPromptTyping(t *testing.T) {
	p, _ := newTestPrompt(t, ".a", 20)
	assert.Equal(t, 2, p.Cursor())

	pressKeys(t, p, "[", "0", "]", " ")
	assert.Equal(t, ".a[0] ", p.Text())

	pressKeys(t, p, "C-a", "x")
	assert.Equal(t, "x.a[0] ", p.Text())
	assert.Equal(t, 1, p.Cursor())
}

func TestPromptUnboundKeysPassThrough(t *testing.T) {
	p, _ := newTestPrompt(t, "", 20)
	evs := pressKeys(t, p, KeyRet, "M-o", KeyEsc)
	assert.Equal(t, []Event{KeyPress{Key: KeyRet}, KeyPress{Key: "M-o"}, KeyPress{Key: KeyEsc}}, evs)
	assert.Equal(t, "", p.Text())
}

func TestPromptWordMotion(t *testing.T) {
	p, _ := newTestPrompt(t, "foo.bar | baz_1", 40)

	pressKeys(t, p, "M-b")
	assert.Equal(t, 10, p.Cursor())
	pressKeys(t, p, "M-b")
	assert.Equal(t, 4, p.Cursor())
	pressKeys(t, p, "C-<left>")
	assert.Equal(t, 0, p.Cursor())
	pressKeys(t, p, "M-f")
	assert.Equal(t, 3, p.Cursor())
	pressKeys(t, p, "C-<right>", "C-<right>")
	assert.Equal(t, 15, p.Cursor())
}

func TestPromptDeletion(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantText   string
		wantCursor int
	}{
		{"kill line", []string{"C-a", "C-f", "C-f", "C-k"}, "fo", 2},
		{"delete previous char", []string{KeyBackspace}, "foo.bar ba", 10},
		{"delete previous word", []string{"M-" + KeyBackspace}, "foo.bar ", 8},
		{"delete next char", []string{"C-a", "C-d"}, "oo.bar baz", 0},
		{"delete next word", []string{"C-a", "M-d"}, ".bar baz", 0},
		{"backspace at start", []string{"C-a", KeyBackspace}, "foo.bar baz", 0},
		{"delete at end", []string{KeyDelete}, "foo.bar baz", 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPrompt(t, "foo.bar baz", 40)
			pressKeys(t, p, tt.keys...)
			assert.Equal(t, tt.wantText, p.Text())
			assert.Equal(t, tt.wantCursor, p.Cursor())
		})
	}
}

func TestPromptUndoRedo(t *testing.T) {
	p, _ := newTestPrompt(t, "se", 40)

	p.UpdateText("sel")
	p.UpdateText("select")
	p.Undo()
	assert.Equal(t, "sel", p.Text())
	p.Redo()
	assert.Equal(t, "select", p.Text())

	// Typing is not a commit, but undo still saves it first.
	pressKeys(t, p, "(")
	p.Undo()
	assert.Equal(t, "select", p.Text())
	p.Redo()
	assert.Equal(t, "select(", p.Text())

	// Undo stops at the oldest entry.
	for range 5 {
		p.Undo()
	}
	assert.Equal(t, "se", p.Text())
}

func TestPromptTypingTruncatesRedoTail(t *testing.T) {
	p, _ := newTestPrompt(t, "abc", 40)
	pressKeys(t, p, "d")
	p.Undo()
	require.Equal(t, "abc", p.Text())
	require.True(t, p.CanRedo())

	pressKeys(t, p, "x")
	p.Redo()
	assert.Equal(t, "abcx", p.Text())
	assert.False(t, p.CanRedo())
}

func TestPromptUndoBindings(t *testing.T) {
	p, _ := newTestPrompt(t, "abc", 40)
	pressKeys(t, p, KeyBackspace, KeyBackspace)
	assert.Equal(t, "a", p.Text())
	pressKeys(t, p, "C-_")
	assert.Equal(t, "ab", p.Text())
	pressKeys(t, p, "M-_")
	assert.Equal(t, "a", p.Text())
}

func TestPromptCopy(t *testing.T) {
	p, copied := newTestPrompt(t, ".items[]", 40)
	evs := pressKeys(t, p, "M-w")
	assert.Equal(t, []Event{StatusUpdate{Message: "Copied."}}, evs)
	assert.Equal(t, []string{".items[]"}, *copied)

	p.copy = func(string) error { return errors.New("no clipboard") }
	_, err := p.HandleKey("M-w")
	assert.EqualError(t, err, "no clipboard")
}

func TestPromptScrollsToCursor(t *testing.T) {
	p, _ := newTestPrompt(t, "abcdefghij", 5)
	assert.Equal(t, 6, p.region.Base.X)

	pressKeys(t, p, "C-a")
	assert.Equal(t, 0, p.region.Base.X)

	pressKeys(t, p, "C-f", "C-f", "C-f", "C-f", "C-f")
	assert.Equal(t, 1, p.region.Base.X)

	// Deleting pulls the window back so no space is wasted on the right.
	pressKeys(t, p, "C-e", KeyBackspace, KeyBackspace, KeyBackspace, KeyBackspace, KeyBackspace, KeyBackspace)
	assert.Equal(t, "abcd", p.Text())
	assert.Equal(t, 0, p.region.Base.X)
}

func TestPromptDrawsCursor(t *testing.T) {
	p, _ := newTestPrompt(t, "ab", 10)
	p.SetActive(true)
	p.Draw()
	canvas := p.region.canvas
	assert.Equal(t, "  ab        ", canvas.Line(0))
	assert.Equal(t, table.AttrReverse, canvas.StyleAt(Point{X: 4}).Attr)

	canvas.Clear()
	p.SetActive(false)
	p.Draw()
	assert.Equal(t, Style{}, canvas.StyleAt(Point{X: 4}))
}
