// Package dateutils provides helpers for the date header rows the app
// interleaves with its transaction list.
package dateutils

import (
	"regexp"
	"strings"
)

// Date headers look like "SUN, 5 OCTOBER" or "TUE, 30 SEPTEMBER": an
// abbreviated weekday, a comma, a day number and a month name, with no amount
// on the same row.
var headerPattern = regexp.MustCompile(`^(MON|TUE|WED|THU|FRI|SAT|SUN),\s+\d{1,2}\s+[A-Z]+$`)

// IsDateHeader reports whether a cleaned fragment matches the section header
// shape used by the history list.
func IsDateHeader(fragment string) bool {
	return headerPattern.MatchString(strings.ToUpper(strings.TrimSpace(fragment)))
}

// NormalizeHeader standardizes a date header fragment without reinterpreting
// it: the export keeps the source's own date formatting, so normalization is
// limited to whitespace and casing.
func NormalizeHeader(fragment string) string {
	cleaned := strings.Join(strings.Fields(fragment), " ")
	return strings.ToUpper(cleaned)
}
