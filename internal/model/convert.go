package model

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ToFloat converts a JSON scalar to float64. Strings are trimmed; nil,
// booleans, empty strings, nested values and non-finite numbers ("inf",
// "NaN") do not convert.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool, []any, map[string]any:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNested reports whether v is a list or object rather than a scalar.
func IsNested(v any) bool {
	switch v.(type) {
	case []any, map[string]any, *Row:
		return true
	}
	return false
}

// ToText renders a cell as text: nil is empty, nested values are JSON.
func ToText(v any) string {
	if v == nil {
		return ""
	}
	if IsNested(v) {
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return cast.ToString(v)
}
