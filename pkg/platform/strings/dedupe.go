// Package strings holds small string-slice helpers shared across modules.
package strings

import "strings"

// DedupeAndTrim trims every element and drops empties and repeats, keeping
// first-occurrence order. The conflict detector runs report warnings through
// this so a warning raised by more than one check is recorded once.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
