package utils

// TruncateString shortens s to at most max runes, appending an ellipsis
// marker when anything was cut. Rune-safe: multi-byte characters are
// never split.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
