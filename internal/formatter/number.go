package formatter

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

// IntegerDigits returns the number of decimal digits of the integer part of
// n, ignoring the sign. Zero and pure fractions have one digit.
func IntegerDigits(n jsonvalue.Number) int {
	if n.Int != nil {
		if n.Int.Sign() == 0 {
			return 1
		}
		return len(new(big.Int).Abs(n.Int).String())
	}
	f := math.Abs(n.Float)
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return 309
	case f < 1:
		return 1
	}
	return len(strconv.FormatFloat(math.Trunc(f), 'f', 0, 64))
}

// IntegerChars is IntegerDigits plus one for a minus sign.
func IntegerChars(n jsonvalue.Number) int {
	d := IntegerDigits(n)
	if n.Negative() {
		d++
	}
	return d
}

// Scientific renders n in exponent notation with the given number of
// mantissa fraction digits, e.g. 1.0e+07.
func Scientific(n jsonvalue.Number, digits int) string {
	if n.Int != nil {
		return new(big.Float).SetInt(n.Int).Text('e', digits)
	}
	return strconv.FormatFloat(n.Float, 'e', digits, 64)
}

// scientificFor picks as many mantissa digits as fit in width, between one
// and precision.
func scientificFor(n jsonvalue.Number, width, precision int) string {
	probe := Scientific(n, 1)
	// "d.d" plus the exponent suffix; the suffix length does not depend on
	// the number of mantissa digits.
	overhead := len(probe) - 1
	digits := width - overhead
	if digits > precision {
		digits = precision
	}
	if digits < 1 {
		digits = 1
	}
	return Scientific(n, digits)
}

func fixed(n jsonvalue.Number, width, fraction int) string {
	f := n.Float
	if n.Int != nil {
		f, _ = new(big.Float).SetInt(n.Int).Float64()
	}
	return fmt.Sprintf("%*.*f", width, fraction, f)
}
