package ui

import "strings"

// Panel is one area of the screen.
type Panel interface {
	// Resize recomputes sub-regions after the panel's region changed.
	Resize()
	// HandleKey processes one key label and returns the events it produced,
	// in order.
	HandleKey(key string) ([]Event, error)
	Draw()
	SetActive(active bool)
}

// TextPanel shows read-only text. Every key passes through.
type TextPanel struct {
	region  *Region
	Content string
	active  bool
}

// NewTextPanel returns a text panel drawing into region.
func NewTextPanel(region *Region, content string) *TextPanel {
	return &TextPanel{region: region, Content: content}
}

func (p *TextPanel) Resize() {}

func (p *TextPanel) HandleKey(key string) ([]Event, error) {
	return []Event{KeyPress{Key: key}}, nil
}

func (p *TextPanel) Draw() {
	for i, line := range strings.Split(p.Content, "\n") {
		p.region.InsertText(Point{Y: i}, line, Style{})
	}
}

func (p *TextPanel) SetActive(active bool) { p.active = active }
