// Package formatter lays out table cells: it measures a column once and then
// renders each of its cells to the shared width.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
	"github.com/oakwood-commons/jqx/internal/table"
)

const (
	// DefaultPrecision is the number of significant digits used for floats.
	DefaultPrecision = 10
	// floatMinWidth fits a one digit scientific float such as 1.5e+00.
	floatMinWidth = 7
)

// Options configures how a column is measured.
type Options struct {
	// MaxWidth caps the column width. Zero means no cap.
	MaxWidth int
	// Precision is the significant digit budget for floats.
	Precision int
}

// ColumnFormat is the measured layout of one column.
type ColumnFormat struct {
	MinWidth      int
	FullWidth     int
	Width         int
	IntegerWidth  int
	FractionWidth *int
	precision     int
}

// NewColumnFormat measures cells in a single pass and resolves the column
// width. Width is never below MinWidth and never above max(MinWidth, cap).
func NewColumnFormat(cells []table.Cell, opts Options) ColumnFormat {
	precision := opts.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	minWidth, fullWidth, integerWidth := 1, 1, 1
	var fraction *int
	var numbers []table.NumberCell

	for _, c := range cells {
		switch cell := c.(type) {
		case table.StringCell:
			w := runewidth.StringWidth(cell.Text)
			fullWidth = max(fullWidth, w)
			if cell.FixedWidth {
				minWidth = max(minWidth, w)
			}
		case table.NumberCell:
			numbers = append(numbers, cell)
			n := cell.Value
			integerWidth = max(integerWidth, IntegerChars(n))
			if n.IsFloat() {
				minWidth = max(minWidth, floatMinWidth)
				fw := 1
				if fraction != nil {
					fw = *fraction
				}
				if !n.IsZero() {
					fw = max(fw, precision-IntegerDigits(n))
				}
				fraction = &fw
			}
		}
	}

	if fraction != nil {
		fullWidth = max(fullWidth, integerWidth+1+*fraction)
	} else {
		fullWidth = max(fullWidth, integerWidth)
	}

	limit := fullWidth
	if opts.MaxWidth > 0 {
		limit = opts.MaxWidth
	}
	width := max(minWidth, min(limit, fullWidth))
	if fraction != nil && width < integerWidth+1+*fraction {
		fraction = nil
	}

	sciWidth := 0
	for _, cell := range numbers {
		n := cell.Value
		if IntegerChars(n) > width || (n.IsFloat() && fraction == nil) {
			sciWidth = max(sciWidth, len(Scientific(n, 1)))
		}
	}
	if sciWidth > 0 {
		minWidth = max(minWidth, sciWidth)
		width = max(minWidth, min(limit, fullWidth))
	}

	return ColumnFormat{
		MinWidth:      minWidth,
		FullWidth:     fullWidth,
		Width:         width,
		IntegerWidth:  min(integerWidth, width),
		FractionWidth: fraction,
		precision:     precision,
	}
}

// Rendered is a cell's text plus how to style it. Pad is the number of
// leading padding cells that belong to a right-aligned integer.
type Rendered struct {
	Text  string
	Color table.Color
	Attr  table.Attr
	Pad   int
}

// Render lays out one cell of the column. Headers pass forceLeft so that
// integer keys are left aligned.
func (f ColumnFormat) Render(c table.Cell, forceLeft bool) Rendered {
	switch cell := c.(type) {
	case table.StringCell:
		s := cell.Text
		if runewidth.StringWidth(s) > f.Width {
			s = runewidth.Truncate(s, f.Width, "…")
		}
		return Rendered{Text: s, Color: cell.Color, Attr: cell.Attr}
	case table.NumberCell:
		return f.renderNumber(cell.Value, forceLeft)
	}
	return Rendered{}
}

func (f ColumnFormat) renderNumber(n jsonvalue.Number, forceLeft bool) Rendered {
	chars := IntegerChars(n)
	out := Rendered{Color: table.ColorBlue}
	switch {
	case !n.IsFloat() && chars <= f.IntegerWidth:
		if forceLeft {
			out.Text = n.Int.String()
			return out
		}
		out.Pad = f.IntegerWidth - chars
		out.Text = strings.Repeat(" ", out.Pad) + n.Int.String()
	case n.IsFloat() && f.FractionWidth != nil && chars <= f.IntegerWidth:
		digits := max(1, min(*f.FractionWidth, f.precision-IntegerDigits(n)))
		out.Text = fixed(n, f.IntegerWidth+1+digits, digits)
	default:
		out.Text = scientificFor(n, f.Width, f.precision)
	}
	return out
}
