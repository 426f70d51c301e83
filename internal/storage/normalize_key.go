package storage

import (
	"fmt"
	"strings"
)

// NormalizeKey converts a dimension key value to a canonical string form,
// suitable for in-memory cache keys (e.g. "Germany" or "8429529").
//
// Backends must not assume a particular underlying type for keys; this helper
// keeps lookup caches consistent across backends.
func NormalizeKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case int64:
		return fmt.Sprintf("%d", t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// JoinKey builds a composite lookup key from normalized parts. Empty parts
// are dropped so a single-token name keys the same whether or not a blank
// last name travels with it.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, " ")
}
