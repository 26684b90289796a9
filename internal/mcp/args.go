package mcp

import (
	"fmt"
	"strings"
	"time"
)

// Argument accessors for tool handlers. JSON decoding delivers numbers as
// float64 and arrays as []any; these helpers normalize the common cases.

func StringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}

func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}

	return fallback
}

func BoolArg(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}

	return false
}

// TimeArg parses an RFC3339 timestamp. A missing or empty argument returns
// the zero time without an error.
func TimeArg(args map[string]any, key string) (time.Time, error) {
	raw := StringArg(args, key)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp, got %q", key, raw)
	}

	return t, nil
}

// StringSliceArg accepts both JSON arrays and comma-separated strings.
func StringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}

		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}

		return out
	}

	return nil
}
