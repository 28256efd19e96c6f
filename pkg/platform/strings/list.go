// Package strings parses list-valued inputs such as repeated query parameters.
package strings

import (
	"strings"
)

// SplitList flattens values that may each hold a comma separated list.
// Elements are trimmed and lowercased; empty and repeated elements are
// dropped. Order of first occurrence is preserved.
//
//	SplitList([]string{"open, expired", "OPEN", ""})
//	// []string{"open", "expired"}
func SplitList(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var result []string
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			v := strings.ToLower(strings.TrimSpace(part))
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}
