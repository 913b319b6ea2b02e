package ui

import (
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jqx/internal/formatter"
	"github.com/oakwood-commons/jqx/internal/navigator"
	"github.com/oakwood-commons/jqx/internal/table"
)

const (
	errNotContainer = "Not an array or object"
	errNotArray     = "Not an array"
)

// TableState is the part of the table view remembered per expression.
type TableState struct {
	Cursor Point
	Base   Point
}

// TablePanel shows a projected table with bold row and column headers. The
// cursor is a (row, column) index pair; scrolling moves the content base and
// never the cursor.
type TablePanel struct {
	region    *Region
	content   *table.Content
	rowKeys   []table.Key
	formats   []formatter.ColumnFormat
	rowFormat formatter.ColumnFormat
	// offsets[i] is the x position of column i; the final entry is the
	// total content width plus one.
	offsets []int
	cursor  Point
	active  bool

	cells      *Region
	rowHeaders *Region
	colHeaders *Region

	fullWidth bool
	maxWidth  int
	precision int

	Bindings *KeyBindings[*TablePanel, Event]
}

// NewTablePanel returns an empty table panel drawing into region.
func NewTablePanel(region *Region, maxWidth, precision int) *TablePanel {
	t := &TablePanel{
		region:     region,
		cells:      NewRegion(region.canvas),
		rowHeaders: NewRegion(region.canvas),
		colHeaders: NewRegion(region.canvas),
		maxWidth:   max(1, maxWidth),
		precision:  precision,
		Bindings:   tableBindings(),
	}
	t.measure()
	return t
}

func tableBindings() *KeyBindings[*TablePanel, Event] {
	b := NewKeyBindings[*TablePanel, Event]()
	move := func(dy, dx int) Handler[*TablePanel, Event] {
		return func(t *TablePanel) (Event, error) {
			t.cursor = t.cursor.Add(Point{Y: dy, X: dx})
			return nil, nil
		}
	}
	b.Add("up", "", move(-1, 0), KeyUp, "C-p")
	b.Add("down", "", move(1, 0), KeyDown, "C-n")
	b.Add("left", "", move(0, -1), KeyLeft, "C-b")
	b.Add("right", "", move(0, 1), KeyRight, "C-f")
	b.Add("enter_cell", "Select the current cell", func(t *TablePanel) (Event, error) {
		return Select{Selector: t.CellSelector()}, nil
	}, KeyRet)
	b.Add("enter_row", "Select the current row", func(t *TablePanel) (Event, error) {
		row, ok := t.RowKey()
		if !ok {
			return nil, nil
		}
		return Select{Selector: navigator.KeyToSelector(row)}, nil
	}, "M-"+KeyRet)
	b.Add("first_row", "", func(t *TablePanel) (Event, error) {
		t.cursor.Y = 0
		return nil, nil
	}, "M-<")
	b.Add("last_row", "", func(t *TablePanel) (Event, error) {
		t.cursor.Y = len(t.rowKeys) - 1
		return nil, nil
	}, "M->")
	b.Add("page_down", "", func(t *TablePanel) (Event, error) {
		t.cursor.Y += max(1, t.cells.Height())
		return nil, nil
	}, KeyPgDown, "C-v")
	b.Add("page_up", "", func(t *TablePanel) (Event, error) {
		t.cursor.Y -= max(1, t.cells.Height())
		return nil, nil
	}, KeyPgUp, "M-v")
	b.Add("last_column", "", func(t *TablePanel) (Event, error) {
		t.cursor.X = len(t.formats) - 1
		return nil, nil
	}, KeyEnd, "C-e")
	b.Add("first_column", "", func(t *TablePanel) (Event, error) {
		t.cursor.X = 0
		return nil, nil
	}, KeyHome, "C-a")
	b.Add("toggle_full_width", "Show columns at their natural width", func(t *TablePanel) (Event, error) {
		t.fullWidth = !t.fullWidth
		t.measure()
		return nil, nil
	}, "l")
	b.Add("widen", "Increase the maximum cell width", func(t *TablePanel) (Event, error) {
		t.setMaxWidth(t.maxWidth + 1)
		return nil, nil
	}, "+")
	b.Add("narrow", "Decrease the maximum cell width", func(t *TablePanel) (Event, error) {
		t.setMaxWidth(t.maxWidth - 1)
		return nil, nil
	}, "-")
	b.Add("expand_row", "Expand the nested value of the current row", func(t *TablePanel) (Event, error) {
		row, ok := t.RowKey()
		if !ok {
			return nil, nil
		}
		if row == table.Sentinel {
			return nil, &InteractionError{Msg: errNotContainer}
		}
		return AppendFilter{Filter: "expand(" + navigator.KeyLiteral(row) + ")"}, nil
	}, "E")
	b.Add("expand_column", "Expand the nested values of the current column", func(t *TablePanel) (Event, error) {
		col, ok := t.ColKey()
		if !ok {
			return nil, nil
		}
		if col == table.Sentinel {
			return nil, &InteractionError{Msg: errNotContainer}
		}
		return AppendFilter{Filter: "map_values(expand(" + navigator.KeyLiteral(col) + "))"}, nil
	}, "e")
	b.Add("delete_row", "Delete the current row", func(t *TablePanel) (Event, error) {
		row, ok := t.RowKey()
		if !ok {
			return nil, nil
		}
		if row == table.Sentinel {
			return nil, &InteractionError{Msg: errNotContainer}
		}
		return AppendFilter{Filter: "del(" + navigator.KeyToSelector(row) + ")"}, nil
	}, "K")
	b.Add("delete_column", "Delete the current column", func(t *TablePanel) (Event, error) {
		col, ok := t.ColKey()
		if !ok {
			return nil, nil
		}
		if col == table.Sentinel {
			return nil, &InteractionError{Msg: errNotContainer}
		}
		return AppendFilter{Filter: "map_values(del(" + navigator.KeyToSelector(col) + "))"}, nil
	}, "k")
	b.Add("select_column", "Keep only the current column", func(t *TablePanel) (Event, error) {
		col, ok := t.ColKey()
		if !ok {
			return nil, nil
		}
		if col == table.Sentinel {
			return nil, &InteractionError{Msg: errNotContainer}
		}
		return AppendFilter{Filter: "map_values(" + navigator.KeyToSelector(col) + ")"}, nil
	}, "m")
	b.Add("sort", "Sort rows by the current column", func(t *TablePanel) (Event, error) {
		row, ok := t.RowKey()
		if !ok {
			return nil, nil
		}
		if _, isIndex := row.(table.IndexKey); !isIndex {
			return nil, &InteractionError{Msg: errNotArray}
		}
		col, ok := t.ColKey()
		if !ok || col == table.Sentinel {
			return AppendFilter{Filter: "sort"}, nil
		}
		return AppendFilter{Filter: "sort_by(" + navigator.KeyToSelector(col) + ")"}, nil
	}, "s")
	return b
}

// Content returns the displayed table, or nil.
func (t *TablePanel) Content() *table.Content { return t.content }

// State returns the cursor and scroll position.
func (t *TablePanel) State() TableState {
	return TableState{Cursor: t.cursor, Base: t.cells.Base}
}

// SetContent replaces the table. A nil state resets the view.
func (t *TablePanel) SetContent(content *table.Content, state *TableState) {
	t.content = content
	t.rowKeys = nil
	if content != nil {
		t.rowKeys = content.RowKeys()
	}
	if state != nil {
		t.cursor = state.Cursor
		t.cells.Base = state.Base
	} else {
		t.cursor = Point{}
		t.cells.Base = Point{}
	}
	t.measure()
}

// RowKey returns the key of the cursor row.
func (t *TablePanel) RowKey() (table.Key, bool) {
	if t.cursor.Y < 0 || t.cursor.Y >= len(t.rowKeys) {
		return nil, false
	}
	return t.rowKeys[t.cursor.Y], true
}

// ColKey returns the key of the cursor column.
func (t *TablePanel) ColKey() (table.Key, bool) {
	if t.content == nil || t.cursor.X < 0 || t.cursor.X >= len(t.content.Columns) {
		return nil, false
	}
	return t.content.Columns[t.cursor.X], true
}

// CellSelector is the path from the table value to the cursor cell.
func (t *TablePanel) CellSelector() string {
	var sel string
	if row, ok := t.RowKey(); ok {
		sel = navigator.KeyToSelector(row)
	}
	if col, ok := t.ColKey(); ok {
		sel += navigator.KeyToSelector(col)
	}
	return sel
}

func (t *TablePanel) setMaxWidth(w int) {
	t.maxWidth = max(1, w)
	t.fullWidth = false
	t.measure()
}

// measure recomputes column formats and offsets, then the layout.
func (t *TablePanel) measure() {
	t.formats = t.formats[:0]
	t.offsets = append(t.offsets[:0], 0)
	opts := formatter.Options{Precision: t.precision}
	if !t.fullWidth {
		opts.MaxWidth = t.maxWidth
	}
	var keyCells []table.Cell
	if t.content != nil {
		for _, col := range t.content.Columns {
			cells := append([]table.Cell{table.KeyCell(col)}, t.content.Column(col)...)
			f := formatter.NewColumnFormat(cells, opts)
			t.formats = append(t.formats, f)
			t.offsets = append(t.offsets, t.offsets[len(t.offsets)-1]+f.Width+1)
		}
		keyCells = make([]table.Cell, len(t.rowKeys))
		for i, k := range t.rowKeys {
			keyCells[i] = table.KeyCell(k)
		}
	}
	t.rowFormat = formatter.NewColumnFormat(keyCells, opts)
	t.layout()
}

// contentOffset is where the cells start inside the panel.
func (t *TablePanel) contentOffset() Point {
	return Point{Y: 1, X: t.rowFormat.Width + 1}
}

func (t *TablePanel) layout() {
	off := t.contentOffset()
	size := t.region.Size
	t.colHeaders.Pos = t.region.Pos.Add(Point{X: off.X})
	t.colHeaders.Size = Point{Y: min(1, size.Y), X: max(0, size.X-off.X)}
	t.rowHeaders.Pos = t.region.Pos.Add(Point{Y: off.Y})
	t.rowHeaders.Size = Point{Y: max(0, size.Y-off.Y), X: min(t.rowFormat.Width, size.X)}
	t.cells.Pos = t.region.Pos.Add(off)
	t.cells.Size = Point{Y: max(0, size.Y-off.Y), X: max(0, size.X-off.X)}
	t.clamp()
}

func (t *TablePanel) Resize() { t.layout() }

// clamp keeps the cursor inside the table and scrolls just enough to show
// the whole cursor cell. When the cell is wider than the window its left
// edge is shown. Empty space past the content is never scrolled into view.
func (t *TablePanel) clamp() {
	rows, cols := len(t.rowKeys), len(t.formats)
	if rows == 0 || cols == 0 {
		t.cursor = Point{}
		t.cells.Base = Point{}
		t.syncHeaders()
		return
	}
	t.cursor.Y = max(0, min(rows-1, t.cursor.Y))
	t.cursor.X = max(0, min(cols-1, t.cursor.X))

	base := t.cells.Base
	h, w := t.cells.Height(), t.cells.Width()
	if h > 0 {
		if t.cursor.Y < base.Y {
			base.Y = t.cursor.Y
		}
		if t.cursor.Y >= base.Y+h {
			base.Y = t.cursor.Y - h + 1
		}
		base.Y = max(0, min(base.Y, rows-h))
	}
	if w > 0 {
		left := t.offsets[t.cursor.X]
		right := left + t.formats[t.cursor.X].Width
		if right > base.X+w {
			base.X = right - w
		}
		if left < base.X {
			base.X = left
		}
		total := t.offsets[cols] - 1
		base.X = max(0, min(base.X, total-w))
	}
	t.cells.Base = base
	t.syncHeaders()
}

func (t *TablePanel) syncHeaders() {
	t.rowHeaders.Base = Point{Y: t.cells.Base.Y}
	t.colHeaders.Base = Point{X: t.cells.Base.X}
}

func (t *TablePanel) HandleKey(key string) ([]Event, error) {
	ev, ok, err := t.Bindings.Handle(key, t)
	t.clamp()
	if err != nil {
		return nil, err
	}
	if ok {
		return events(ev), nil
	}
	return []Event{KeyPress{Key: key}}, nil
}

// visibleColumns returns the half-open range of columns that intersect the
// window.
func (t *TablePanel) visibleColumns() (int, int) {
	cols := len(t.formats)
	lo, hi := t.cells.Base.X, t.cells.Base.X+t.cells.Width()
	first := sort.Search(cols, func(i int) bool { return t.offsets[i+1] > lo })
	last := sort.Search(cols, func(i int) bool { return t.offsets[i] >= hi })
	return first, last
}

func (t *TablePanel) Draw() {
	if t.content == nil {
		return
	}
	first, last := t.visibleColumns()
	top := max(0, t.cells.Base.Y)
	bottom := min(len(t.rowKeys), top+t.cells.Height())

	for i := first; i < last; i++ {
		r := t.formats[i].Render(table.KeyCell(t.content.Columns[i]), true)
		t.colHeaders.InsertText(Point{X: t.offsets[i]}, r.Text, Style{Color: r.Color, Attr: r.Attr | table.AttrBold})
	}
	for y := top; y < bottom; y++ {
		r := t.rowFormat.Render(table.KeyCell(t.rowKeys[y]), false)
		text := runewidth.FillLeft(r.Text, t.rowFormat.Width)
		t.rowHeaders.InsertText(Point{Y: y}, text, Style{Color: r.Color, Attr: r.Attr | table.AttrBold})
		for i := first; i < last; i++ {
			cell, ok := t.content.Cell(y, t.content.Columns[i])
			if !ok {
				continue
			}
			t.drawCell(Point{Y: y, X: t.offsets[i]}, t.formats[i].Render(cell, false))
		}
	}

	if t.active && len(t.formats) > 0 && len(t.rowKeys) > 0 {
		pos := Point{Y: t.cursor.Y, X: t.offsets[t.cursor.X]}
		t.cells.SetStyle(pos, t.formats[t.cursor.X].Width, Style{Attr: table.AttrReverse})
	}
}

func (t *TablePanel) drawCell(pos Point, r formatter.Rendered) {
	style := Style{Color: r.Color, Attr: r.Attr}
	if r.Pad > 0 {
		t.cells.InsertText(pos, strings.Repeat(" ", r.Pad), style.With(table.AttrDim|table.AttrUnderline))
		pos.X += r.Pad
	}
	t.cells.InsertText(pos, r.Text[r.Pad:], style)
}

func (t *TablePanel) SetActive(active bool) { t.active = active }
