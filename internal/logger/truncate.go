package logger

import "unicode/utf8"

// Truncate shortens s to at most n bytes on a rune boundary, appending "…" when cut.
// Used to keep prompts and model output readable in debug logs.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
