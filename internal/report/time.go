package report

import "time"

// FormatTimestamp returns a RFC3339 UTC timestamp string.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
