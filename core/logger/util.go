package logger

import (
	"strings"
	"time"
	"unicode"
)

// RoundMS rounds a duration to whole milliseconds for log output.
func RoundMS(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}

// SanitizeLimit strips control characters and truncates user-provided text
// before it enters a log line.
func SanitizeLimit(s string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	if limit > 0 && len(cleaned) > limit {
		return cleaned[:limit]
	}
	return cleaned
}

// SummarizeStrings joins up to max items with a truncation flag.
func SummarizeStrings(items []string, max int) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	if max <= 0 || len(items) <= max {
		return strings.Join(items, ","), false
	}
	return strings.Join(items[:max], ","), true
}
