package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jqx/internal/table"
)

// Point is a screen or content position, row first.
type Point struct {
	Y, X int
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{Y: p.Y + q.Y, X: p.X + q.X} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{Y: p.Y - q.Y, X: p.X - q.X} }

// Style is the look of a run of cells.
type Style struct {
	Color table.Color
	Attr  table.Attr
}

// With returns s with attr added.
func (s Style) With(attr table.Attr) Style {
	s.Attr |= attr
	return s
}

var ansiColors = map[table.Color]color.Color{
	table.ColorRed:     lipgloss.Red,
	table.ColorGreen:   lipgloss.Green,
	table.ColorYellow:  lipgloss.Yellow,
	table.ColorBlue:    lipgloss.Blue,
	table.ColorMagenta: lipgloss.Magenta,
	table.ColorCyan:    lipgloss.Cyan,
}

func (s Style) lipgloss(noColor bool) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c, ok := ansiColors[s.Color]; ok && !noColor {
		st = st.Foreground(c)
	}
	if s.Attr&table.AttrBold != 0 {
		st = st.Bold(true)
	}
	if s.Attr&table.AttrDim != 0 && !noColor {
		st = st.Faint(true)
	}
	if s.Attr&table.AttrUnderline != 0 && !noColor {
		st = st.Underline(true)
	}
	if s.Attr&table.AttrReverse != 0 {
		st = st.Reverse(true)
	}
	return st
}

// cell is one terminal column. A wide rune occupies its first cell; the
// following cell holds empty text.
type cell struct {
	text  string
	style Style
}

// Canvas is an off-screen grid that panels draw into between frames.
type Canvas struct {
	width, height int
	cells         [][]cell
	NoColor       bool
	styles        map[Style]lipgloss.Style
}

// NewCanvas returns a blank canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{styles: map[Style]lipgloss.Style{}}
	c.Resize(width, height)
	return c
}

// Size returns the canvas size.
func (c *Canvas) Size() Point { return Point{Y: c.height, X: c.width} }

// Resize changes the canvas size and clears it.
func (c *Canvas) Resize(width, height int) {
	c.width, c.height = max(0, width), max(0, height)
	c.cells = make([][]cell, c.height)
	for y := range c.cells {
		c.cells[y] = make([]cell, c.width)
	}
	c.Clear()
}

// Clear blanks every cell.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = cell{text: " "}
		}
	}
}

func (c *Canvas) inside(y, x int) bool {
	return y >= 0 && y < c.height && x >= 0 && x < c.width
}

// put writes s starting at (y, x). s must already be clipped to the canvas.
func (c *Canvas) put(y, x int, s string, style Style) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if !c.inside(y, x+w-1) {
			return
		}
		c.cells[y][x] = cell{text: string(r), style: style}
		if w == 2 {
			c.cells[y][x+1] = cell{style: style}
		}
		x += w
	}
}

func (c *Canvas) restyle(y, x, width int, style Style) {
	for i := x; i < x+width; i++ {
		if c.inside(y, i) {
			c.cells[y][i].style = style
		}
	}
}

// Line returns row y as plain text.
func (c *Canvas) Line(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	var b strings.Builder
	for _, cl := range c.cells[y] {
		b.WriteString(cl.text)
	}
	return b.String()
}

// StyleAt returns the style of the cell at p.
func (c *Canvas) StyleAt(p Point) Style {
	if !c.inside(p.Y, p.X) {
		return Style{}
	}
	return c.cells[p.Y][p.X].style
}

func (c *Canvas) render(style Style, s string) string {
	if style == (Style{}) {
		return s
	}
	st, ok := c.styles[style]
	if !ok {
		st = style.lipgloss(c.NoColor)
		c.styles[style] = st
	}
	return st.Render(s)
}

// Render draws the canvas with ANSI styling, one line per row.
func (c *Canvas) Render() string {
	var out strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var current Style
		for _, cl := range row {
			if cl.style != current && run.Len() > 0 {
				out.WriteString(c.render(current, run.String()))
				run.Reset()
			}
			current = cl.style
			run.WriteString(cl.text)
		}
		tail := run.String()
		if current == (Style{}) {
			tail = strings.TrimRight(tail, " ")
		}
		out.WriteString(c.render(current, tail))
	}
	return out.String()
}

// Region is a rectangular window onto a Canvas. Positions passed to
// InsertText and SetStyle are content coordinates: Base is subtracted before
// clipping, so a panel scrolls by moving Base.
type Region struct {
	canvas *Canvas
	Pos    Point
	Size   Point
	Base   Point
}

// NewRegion returns an empty region on canvas.
func NewRegion(canvas *Canvas) *Region {
	return &Region{canvas: canvas}
}

// Width returns the visible width.
func (r *Region) Width() int { return r.Size.X }

// Height returns the visible height.
func (r *Region) Height() int { return r.Size.Y }

// InsertText draws text at content position pos. Anything outside the
// visible window is clipped.
func (r *Region) InsertText(pos Point, text string, style Style) {
	abs := pos.Sub(r.Base)
	width := runewidth.StringWidth(text)
	if abs.Y < 0 || abs.Y >= r.Size.Y || abs.X >= r.Size.X || abs.X <= -width {
		return
	}
	skip := max(0, -abs.X)
	visible := clipCells(text, skip, r.Size.X-max(0, abs.X))
	r.canvas.put(r.Pos.Y+abs.Y, r.Pos.X+max(0, abs.X), visible, style)
}

// SetStyle restyles width cells at content position pos, clipped to the
// visible window.
func (r *Region) SetStyle(pos Point, width int, style Style) {
	abs := pos.Sub(r.Base)
	if abs.Y < 0 || abs.Y >= r.Size.Y || abs.X >= r.Size.X || abs.X <= -width {
		return
	}
	start := max(0, abs.X)
	n := min(r.Size.X-start, width-max(0, -abs.X))
	r.canvas.restyle(r.Pos.Y+abs.Y, r.Pos.X+start, n, style)
}

// clipCells drops the first skip terminal cells of s and keeps at most width
// cells. A wide rune cut in half becomes a space.
func clipCells(s string, skip, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	pos, used := 0, 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			if pos > skip && used > 0 {
				b.WriteRune(r)
			}
			continue
		}
		start := pos
		pos += w
		if pos <= skip {
			continue
		}
		if start < skip {
			// Left half clipped.
			b.WriteString(strings.Repeat(" ", pos-skip))
			used += pos - skip
			continue
		}
		if used+w > width {
			if used < width {
				b.WriteString(strings.Repeat(" ", width-used))
			}
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String()
}
