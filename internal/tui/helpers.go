package tui

import (
	"time"
	"unicode/utf8"
)

// formatDateTime renders a server timestamp as "YYYY-MM-DD HH:MM" in local time.
func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	buf := make([]byte, 0, len(s)+width-n)
	buf = append(buf, s...)
	for i := n; i < width; i++ {
		buf = append(buf, ' ')
	}
	return string(buf)
}
