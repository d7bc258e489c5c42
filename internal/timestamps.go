package internal

import (
	"strconv"
	"time"
)

// NormalizeTimestamp converts a raw source timestamp to RFC3339. Sources
// disagree on format: Claude and Codex write RFC3339 strings, Cursor writes
// Unix milliseconds. An unparsable value yields "", never a fabricated time.
func NormalizeTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 0 {
		return FormatUnixMilli(ms)
	}
	return ""
}

// FormatUnixMilli formats a Unix millisecond timestamp as RFC3339.
func FormatUnixMilli(ms int64) string {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC().Format(time.RFC3339)
}
