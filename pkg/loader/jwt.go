package loader

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

func trimToken(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "Bearer ")
	return strings.TrimSpace(input)
}

// IsJWT detects if input looks like a JWT token.
// A valid JWT has exactly 3 dot-separated parts where the first two
// are valid base64url-encoded JSON objects.
func IsJWT(input string) bool {
	parts := strings.Split(trimToken(input), ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if len(part) == 0 {
			return false
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := decodeSegment(parts[i]); err != nil {
			return false
		}
	}
	_, err := base64.RawURLEncoding.DecodeString(parts[2])
	return err == nil
}

func decodeSegment(part string) (jsonvalue.Object, error) {
	raw, err := base64.RawURLEncoding.DecodeString(part)
	if err != nil {
		return nil, err
	}
	v, err := jsonvalue.Parse(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(jsonvalue.Object)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", jsonvalue.Kind(v))
	}
	return obj, nil
}

// DecodeJWT splits a JWT token into an object with header, payload and
// signature members. Claims keep their encoded order. The signature stays
// base64url encoded.
func DecodeJWT(input string) (jsonvalue.Object, error) {
	parts := strings.Split(trimToken(input), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT: expected 3 parts, got %d", len(parts))
	}
	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload: %w", err)
	}
	return jsonvalue.Object{
		{Key: "header", Value: header},
		{Key: "payload", Value: payload},
		{Key: "signature", Value: jsonvalue.String(parts[2])},
	}, nil
}
