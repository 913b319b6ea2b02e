// Package table projects JSON values onto a two level row/column grid.
package table

import (
	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

// Color is a foreground color class for a cell.
type Color int

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
)

// Attr is a set of text attributes.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrUnderline
	AttrReverse
)

// Cell is either a StringCell or a NumberCell.
type Cell interface {
	isCell()
}

// StringCell is pre-rendered text. FixedWidth cells never shrink below their
// own width when a column is narrowed.
type StringCell struct {
	Text       string
	Color      Color
	FixedWidth bool
	Attr       Attr
}

// NumberCell holds a number whose layout depends on the rest of its column.
type NumberCell struct {
	Value jsonvalue.Number
}

func (StringCell) isCell() {}
func (NumberCell) isCell() {}

var (
	cellTrue      = StringCell{Text: "true", Color: ColorGreen, FixedWidth: true}
	cellFalse     = StringCell{Text: "false", Color: ColorRed, FixedWidth: true}
	cellEmptyStr  = StringCell{Text: `""`, Attr: AttrDim}
	cellEmptyArr  = StringCell{Text: "[]", Color: ColorMagenta, FixedWidth: true, Attr: AttrDim}
	cellArr       = StringCell{Text: "[…]", Color: ColorMagenta, FixedWidth: true}
	cellEmptyObj  = StringCell{Text: "{}", Color: ColorMagenta, FixedWidth: true, Attr: AttrDim}
	cellObj       = StringCell{Text: "{…}", Color: ColorMagenta, FixedWidth: true}
	cellNull      = StringCell{Text: "null", Color: ColorYellow, FixedWidth: true, Attr: AttrDim}
	cellUndefined = StringCell{}
)

// ToCell maps any JSON value to its display cell. Containers collapse to a
// short placeholder; strings that need escaping are shown JSON-quoted.
func ToCell(v jsonvalue.Value) Cell {
	switch t := v.(type) {
	case jsonvalue.Bool:
		if t {
			return cellTrue
		}
		return cellFalse
	case jsonvalue.Number:
		return NumberCell{Value: t}
	case jsonvalue.String:
		s := string(t)
		if s == "" {
			return cellEmptyStr
		}
		if quoted := jsonvalue.Quote(s); quoted[1:len(quoted)-1] != s {
			s = quoted
		}
		return StringCell{Text: s}
	case jsonvalue.Array:
		if len(t) == 0 {
			return cellEmptyArr
		}
		return cellArr
	case jsonvalue.Object:
		if len(t) == 0 {
			return cellEmptyObj
		}
		return cellObj
	case jsonvalue.Null:
		return cellNull
	default:
		return cellUndefined
	}
}

// KeyCell renders a row or column key as a header cell.
func KeyCell(k Key) Cell {
	switch t := k.(type) {
	case StringKey:
		return StringCell{Text: string(t)}
	case IndexKey:
		return NumberCell{Value: jsonvalue.Int(int64(t))}
	default:
		return cellUndefined
	}
}
