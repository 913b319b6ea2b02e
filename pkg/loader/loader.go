// Package loader turns jqx inputs into files jq can read.
//
// JSON and newline-delimited JSON are handed to jq untouched. YAML, TOML and
// JWT inputs are converted to JSON first, and streams that jq cannot reopen
// (stdin, pipes, process substitution) are spooled to temporary files.
package loader

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is a detected input format.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
	FormatJWT
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatJWT:
		return "jwt"
	default:
		return "json"
	}
}

// Detect guesses the format of input. Anything that is not recognizably
// YAML, TOML or a JWT is treated as JSON and left for jq to reject.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	if input == "" {
		return FormatJSON
	}

	// Check for JWT first (single-line, dot-separated base64url)
	if IsJWT(input) {
		return FormatJWT
	}

	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return FormatYAML
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		return FormatJSON
	}

	// TOML [section] headers look like JSON arrays, so check TOML before JSON.
	if isLikelyTOML(input) {
		return FormatTOML
	}

	if looksLikeJSON(input) {
		return FormatJSON
	}
	return FormatYAML
}

// FormatForPath picks a format from a file extension. ok is false when the
// extension says nothing.
func FormatForPath(path string) (f Format, ok bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML, true
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML, true
	case strings.HasSuffix(lower, ".jwt"):
		return FormatJWT, true
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".ndjson"), strings.HasSuffix(lower, ".jsonl"):
		return FormatJSON, true
	}
	return FormatJSON, false
}

// ToJSON converts data in format f into a stream of JSON documents, one per
// line. JSON input is returned unchanged.
func ToJSON(data []byte, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yamlToJSON(data)
	case FormatTOML:
		return tomlToJSON(data)
	case FormatJWT:
		obj, err := DecodeJWT(string(data))
		if err != nil {
			return nil, err
		}
		return appendDocument(nil, obj), nil
	default:
		return data, nil
	}
}

var jsonScalar = regexp.MustCompile(`^(?:"|-?[0-9]|true\b|false\b|null\b)`)

func looksLikeJSON(input string) bool {
	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") {
		return true
	}
	return jsonScalar.MatchString(input) && !strings.Contains(input, ": ")
}

// isLikelyNDJSON heuristic: returns true if the input looks like newline-delimited JSON.
// A majority of non-empty lines must start with '{' or '[' so that YAML files
// with many bare list items are not misclassified.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}

	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	// Section headers start in column 0: [server], [[items]], ["table name"],
	// [database.credentials], [server."host.name"]. JSON arrays like [1, 2, 3]
	// and indented lines of YAML block scalars do not match.
	tomlSectionPattern = regexp.MustCompile(`^\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)

	// key = value (not key: value which is YAML), with bare, quoted or dotted keys.
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML heuristic: returns true if the input has TOML section headers
// or mostly key = value lines.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0

	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++

		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}

	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

func errorf(f Format, err error) error {
	return fmt.Errorf("invalid %s: %w", strings.ToUpper(f.String()), err)
}
