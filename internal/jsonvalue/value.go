// Package jsonvalue holds an ordered JSON document model.
//
// Object members keep the order in which they were decoded, and numbers keep
// their exact literal so integers of any size survive a round trip through jq.
package jsonvalue

import (
	"math/big"
	"strings"
)

// Value is one of String, Number, Bool, Null, Array or Object.
type Value interface {
	isValue()
}

// String is a JSON string.
type String string

// Bool is a JSON boolean.
type Bool bool

// Null is the JSON null literal.
type Null struct{}

// Array is a JSON array.
type Array []Value

// Member is a single object property.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object with members in document order.
type Object []Member

// Number is a JSON number. Integral literals are held exactly in Int;
// literals with a fraction or exponent are held in Float.
type Number struct {
	Literal string
	Int     *big.Int
	Float   float64
}

func (String) isValue() {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (Array) isValue()  {}
func (Object) isValue() {}
func (Number) isValue() {}

// IsFloat reports whether the number was written with a fraction or exponent.
func (n Number) IsFloat() bool { return n.Int == nil }

// IsZero reports whether the number equals zero.
func (n Number) IsZero() bool {
	if n.Int != nil {
		return n.Int.Sign() == 0
	}
	return n.Float == 0
}

// Negative reports whether the number is below zero.
func (n Number) Negative() bool {
	if n.Int != nil {
		return n.Int.Sign() < 0
	}
	return n.Float < 0
}

// Get returns the value of the member named key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Int returns an exact integer number.
func Int(i int64) Number {
	return Number{Literal: big.NewInt(i).String(), Int: big.NewInt(i)}
}

// BigInt returns an exact integer number for an arbitrarily large value.
func BigInt(i *big.Int) Number {
	return Number{Literal: i.String(), Int: new(big.Int).Set(i)}
}

// Float returns a floating point number.
func Float(f float64) Number {
	return Number{Literal: formatFloat(f), Float: f}
}

// ParseNumber builds a Number from a JSON number literal.
func ParseNumber(literal string) (Number, error) {
	if !strings.ContainsAny(literal, ".eE") {
		i, ok := new(big.Int).SetString(literal, 10)
		if !ok {
			return Number{}, &SyntaxError{Msg: "invalid number " + literal}
		}
		return Number{Literal: literal, Int: i}, nil
	}
	f, _, err := big.ParseFloat(literal, 10, 64, big.ToNearestEven)
	if err != nil {
		return Number{}, &SyntaxError{Msg: "invalid number " + literal}
	}
	v, _ := f.Float64()
	return Number{Literal: literal, Float: v}, nil
}

// Kind names the JSON type of v the way jq's type builtin does.
func Kind(v Value) string {
	switch v.(type) {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "null"
	}
}
