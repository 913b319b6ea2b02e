package table

import (
	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

// Entry is one keyed cell of a row.
type Entry struct {
	Key  Key
	Cell Cell
}

// Row is an ordered set of cells keyed by column.
type Row struct {
	Key     Key
	Entries []Entry
	index   map[Key]int
}

// Get returns the row's cell in column k.
func (r *Row) Get(k Key) (Cell, bool) {
	if r.index == nil {
		for _, e := range r.Entries {
			if e.Key == k {
				return e.Cell, true
			}
		}
		return nil, false
	}
	i, ok := r.index[k]
	if !ok {
		return nil, false
	}
	return r.Entries[i].Cell, true
}

// Keys returns the row's column keys in order.
func (r *Row) Keys() []Key {
	keys := make([]Key, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Content is the projected table: rows in order, plus the merged column keys.
type Content struct {
	Rows    []Row
	Columns []Key
}

// Len returns the number of rows.
func (c *Content) Len() int { return len(c.Rows) }

// RowKeys returns the row keys in order.
func (c *Content) RowKeys() []Key {
	keys := make([]Key, len(c.Rows))
	for i := range c.Rows {
		keys[i] = c.Rows[i].Key
	}
	return keys
}

// Cell returns the cell at row index i and column key col. Absent cells
// report false and render blank.
func (c *Content) Cell(i int, col Key) (Cell, bool) {
	if i < 0 || i >= len(c.Rows) {
		return nil, false
	}
	return c.Rows[i].Get(col)
}

// Column returns every present cell in column col, top to bottom.
func (c *Content) Column(col Key) []Cell {
	cells := make([]Cell, 0, len(c.Rows))
	for i := range c.Rows {
		if cell, ok := c.Rows[i].Get(col); ok {
			cells = append(cells, cell)
		}
	}
	return cells
}

// Project builds the table for v. Arrays yield index rows, objects yield
// property rows and any other value yields a single sentinel row; each row
// value is expanded one more level by the same rule.
func Project(v jsonvalue.Value) *Content {
	c := &Content{}
	switch t := v.(type) {
	case jsonvalue.Array:
		c.Rows = make([]Row, len(t))
		for i, e := range t {
			c.Rows[i] = projectRow(IndexKey(i), e)
		}
	case jsonvalue.Object:
		c.Rows = make([]Row, len(t))
		for i, m := range t {
			c.Rows[i] = projectRow(StringKey(m.Key), m.Value)
		}
	default:
		c.Rows = []Row{projectRow(Sentinel, v)}
	}

	lists := make([][]Key, len(c.Rows))
	for i := range c.Rows {
		lists[i] = c.Rows[i].Keys()
	}
	c.Columns = SortKeys(CollectKeys(lists))
	return c
}

func projectRow(key Key, v jsonvalue.Value) Row {
	var entries []Entry
	switch t := v.(type) {
	case jsonvalue.Array:
		entries = make([]Entry, len(t))
		for i, e := range t {
			entries[i] = Entry{Key: IndexKey(i), Cell: ToCell(e)}
		}
	case jsonvalue.Object:
		entries = make([]Entry, len(t))
		for i, m := range t {
			entries[i] = Entry{Key: StringKey(m.Key), Cell: ToCell(m.Value)}
		}
	default:
		entries = []Entry{{Key: Sentinel, Cell: ToCell(v)}}
	}
	row := Row{Key: key, Entries: entries}
	if len(entries) > 8 {
		row.index = make(map[Key]int, len(entries))
		for i, e := range entries {
			row.index[e.Key] = i
		}
	}
	return row
}
