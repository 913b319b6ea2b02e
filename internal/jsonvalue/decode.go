package jsonvalue

import (
	"bytes"
	"fmt"

	"github.com/buger/jsonparser"
)

// SyntaxError describes input that is not exactly one JSON document.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return "invalid json: " + e.Msg }

// Parse decodes exactly one JSON document. Surrounding whitespace is allowed,
// anything else after the document is an error.
func Parse(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &SyntaxError{Msg: "empty document"}
	}
	raw, typ, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return nil, &SyntaxError{Msg: fmt.Sprintf("unexpected data after document at offset %d", len(data)-len(rest))}
	}
	return convert(raw, typ)
}

func convert(raw []byte, typ jsonparser.ValueType) (Value, error) {
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, &SyntaxError{Msg: err.Error()}
		}
		return String(s), nil
	case jsonparser.Number:
		return ParseNumber(string(raw))
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, &SyntaxError{Msg: err.Error()}
		}
		return Bool(b), nil
	case jsonparser.Null:
		return Null{}, nil
	case jsonparser.Array:
		return convertArray(raw)
	case jsonparser.Object:
		return convertObject(raw)
	default:
		return nil, &SyntaxError{Msg: fmt.Sprintf("unexpected token %q", truncate(raw))}
	}
}

func convertArray(raw []byte) (Value, error) {
	arr := Array{}
	var convErr error
	_, err := jsonparser.ArrayEach(raw, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if convErr != nil {
			return
		}
		if err != nil {
			convErr = err
			return
		}
		v, err := convert(value, typ)
		if err != nil {
			convErr = err
			return
		}
		arr = append(arr, v)
	})
	if convErr != nil {
		return nil, convErr
	}
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	return arr, nil
}

func convertObject(raw []byte) (Value, error) {
	obj := Object{}
	index := map[string]int{}
	err := jsonparser.ObjectEach(raw, func(key []byte, value []byte, typ jsonparser.ValueType, _ int) error {
		v, err := convert(value, typ)
		if err != nil {
			return err
		}
		k := string(key)
		if i, ok := index[k]; ok {
			obj[i].Value = v
			return nil
		}
		index[k] = len(obj)
		obj = append(obj, Member{Key: k, Value: v})
		return nil
	})
	if err != nil {
		if _, ok := err.(*SyntaxError); ok {
			return nil, err
		}
		return nil, &SyntaxError{Msg: err.Error()}
	}
	return obj, nil
}

func truncate(b []byte) string {
	if len(b) > 16 {
		return string(b[:16]) + "..."
	}
	return string(b)
}
