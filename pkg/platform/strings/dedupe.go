// Package strings holds small string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, non-empty,
// de-duplicated elements in first-seen order. Returns nil when nothing
// remains.
//
//	SplitList(" broker-1:9092, broker-2:9092,,broker-1:9092")
//	// []string{"broker-1:9092", "broker-2:9092"}
func SplitList(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
