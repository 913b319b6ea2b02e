package jsonvalue

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Marshal encodes v as compact JSON. Number literals are written back
// unchanged so that large integers keep every digit.
func Marshal(v Value) []byte {
	var buf bytes.Buffer
	encode(&buf, v)
	return buf.Bytes()
}

// Quote returns s as a JSON string literal without HTML escaping.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func encode(buf *bytes.Buffer, v Value) {
	switch t := v.(type) {
	case String:
		buf.WriteString(Quote(string(t)))
	case Number:
		if t.Literal != "" {
			buf.WriteString(t.Literal)
		} else if t.Int != nil {
			buf.WriteString(t.Int.String())
		} else {
			buf.WriteString(formatFloat(t.Float))
		}
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(t)))
	case Array:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			encode(buf, e)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(Quote(m.Key))
			buf.WriteByte(':')
			encode(buf, m.Value)
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "1.7976931348623157e+308"
	case math.IsInf(f, -1):
		return "-1.7976931348623157e+308"
	case math.IsNaN(f):
		return "null"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
