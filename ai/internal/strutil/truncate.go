// Package strutil provides string helpers for the ai package.
package strutil

// Truncate shortens a string to at most maxLen runes, appending "..."
// when anything was cut. Rune-level so multi-byte characters survive.
// Returns empty string if maxLen <= 0 to prevent slice bounds panic.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
