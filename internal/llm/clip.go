package llm

import "unicode/utf8"

// Clip shortens s to at most max runes so prompts stay within budget.
// A non-positive max disables clipping.
func Clip(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
