// Package timeutil normalizes heterogeneous date/time text into the
// canonical YYYY-MM-DD / HH:MM representations all storage and comparisons
// use.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Canonical layouts.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// dateLayouts are tried in order: strict canonical, RFC-1123 textual
// date-time, DD/MM/YYYY, then general ISO-8601 shapes.
var dateLayouts = []string{
	DateLayout,
	time.RFC1123,
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Today returns the current date in canonical form.
func Today() string {
	return time.Now().Format(DateLayout)
}

// NormalizeDate converts arbitrary date text into canonical YYYY-MM-DD form.
// If nothing parses it returns today's date and reports fallback=true so the
// caller can decide whether the silent default is acceptable. Empty input is
// treated as a fallback too.
func NormalizeDate(input string) (date string, fallback bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Today(), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), false
		}
	}
	return Today(), true
}

// NormalizeTime converts time text into canonical HH:MM form. Exact HH:MM
// input is re-rendered zero-padded; anything longer is truncated to its
// first five characters as a best effort, without validating that the
// result is a legal time. Empty or too-short unparseable input reports
// ok=false (absent).
func NormalizeTime(input string) (hhmm string, ok bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.Format(TimeLayout), true
	}
	if len(s) >= 5 {
		return s[:5], true
	}
	return "", false
}

// RenderTime renders a stored time value back into HH:MM text. Depending on
// the storage driver the value may arrive as a duration since midnight, a
// full timestamp, or a string; all three are handled uniformly.
func RenderTime(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(TimeLayout)
	case time.Duration:
		total := int(t.Seconds())
		return fmt.Sprintf("%02d:%02d", total/3600, total%3600/60)
	case *string:
		if t == nil {
			return ""
		}
		return clipTime(*t)
	case string:
		return clipTime(t)
	default:
		return clipTime(fmt.Sprint(v))
	}
}

func clipTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
