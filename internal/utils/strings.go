package utils

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxStringLength is the limit used by TruncateString when maxLen is
// not positive.
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen runes and records the original
// length in a suffix. It is used for attribute values that may hold whole
// documents.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	total := utf8.RuneCountInString(s)
	if total <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:i], total)
		}
		n++
	}
	return s
}
