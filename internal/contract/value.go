package contract

import (
	"fmt"
	"sort"
)

// Walk visits every string reachable from v: plain strings, slices and map values
// of any nesting. Map values are visited in sorted key order so results are stable.
// Walk stops as soon as visit returns false and reports whether it ran to completion.
func Walk(v any, visit func(s string) bool) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return visit(t)
	case []string:
		for _, s := range t {
			if !visit(s) {
				return false
			}
		}
	case []any:
		for _, item := range t {
			if !Walk(item, visit) {
				return false
			}
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			if !Walk(t[k], visit) {
				return false
			}
		}
	case map[string][]string:
		for _, k := range sortedKeys(t) {
			if !Walk(t[k], visit) {
				return false
			}
		}
	case map[string]string:
		for _, k := range sortedKeys(t) {
			if !visit(t[k]) {
				return false
			}
		}
	}
	return true
}

// FindString returns the first non-empty result of match over the strings reachable from v.
func FindString(v any, match func(s string) string) string {
	var found string
	Walk(v, func(s string) bool {
		found = match(s)
		return found == ""
	})
	return found
}

// AsString converts a scalar JSON value to a string. Objects and arrays yield "".
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool, float64, float32, int, int64:
		return fmt.Sprint(t)
	}
	return ""
}

// AsStringSlice converts a JSON array (or a lone string) to a slice of non-empty strings.
func AsStringSlice(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := AsString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
