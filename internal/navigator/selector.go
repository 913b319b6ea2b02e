// Package navigator builds jq path expressions from table positions and
// appends them to the user's filter.
package navigator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
	"github.com/oakwood-commons/jqx/internal/table"
)

const (
	identifier = `[a-zA-Z_][a-zA-Z0-9_]*`
	bracketed  = `\[(?:"[^\]"\\]*"|\d+)\]`
)

var (
	identifierPattern = regexp.MustCompile(`^` + identifier + `$`)

	// selectorPattern matches a pure path such as .a.b[0]["x y"] that can be
	// extended by concatenation.
	selectorPattern = regexp.MustCompile(
		`^\s*(?:\.` + bracketed + `|\.` + identifier + `)(?:\.?` + bracketed + `|\.` + identifier + `)*\s*$`,
	)
)

// KeyToSelector returns the jq path that selects k from its parent. The
// sentinel key selects nothing and yields "".
func KeyToSelector(k table.Key) string {
	switch t := k.(type) {
	case table.StringKey:
		if identifierPattern.MatchString(string(t)) {
			return "." + string(t)
		}
		return ".[" + jsonvalue.Quote(string(t)) + "]"
	case table.IndexKey:
		return ".[" + strconv.Itoa(int(t)) + "]"
	default:
		return ""
	}
}

// KeyLiteral returns k as a jq literal: a quoted string for object keys and
// a number for array indices. The sentinel key yields "".
func KeyLiteral(k table.Key) string {
	switch t := k.(type) {
	case table.StringKey:
		return jsonvalue.Quote(string(t))
	case table.IndexKey:
		return strconv.Itoa(int(t))
	default:
		return ""
	}
}

// IsSelector reports whether s is a pure path expression.
func IsSelector(s string) bool {
	return selectorPattern.MatchString(s)
}

// AppendSelector extends expression with selector. When the last pipeline
// stage of expression is itself a pure path, the selector is concatenated to
// it; otherwise a new pipeline stage is added.
func AppendSelector(expression, selector string) string {
	if selector == "" {
		if expression == "" {
			return "."
		}
		return expression
	}
	if !strings.HasPrefix(selector, ".") {
		selector = "." + selector
	}
	if strings.TrimSpace(expression) == "" {
		return selector
	}
	last := expression
	if i := strings.LastIndex(expression, "|"); i >= 0 {
		last = expression[i+1:]
	}
	if IsSelector(last) {
		return expression + selector
	}
	return expression + " | " + selector
}

// AppendFilter always adds filter as a new pipeline stage.
func AppendFilter(expression, filter string) string {
	if strings.TrimSpace(expression) == "" {
		return filter
	}
	return expression + " | " + filter
}
