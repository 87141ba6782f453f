// Package textutils provides text normalization utilities for UI label content.
package textutils

import (
	"strings"
)

// CleanText collapses internal runs of whitespace (including newlines and
// tabs) into single spaces and trims leading/trailing whitespace. UI labels
// frequently arrive with padding and embedded line breaks.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SplitFragments splits a multi-line UI label into its cleaned, non-empty
// line fragments. Accessibility labels pack one list item's sub-elements into
// a single newline-separated value.
func SplitFragments(label string) []string {
	var fragments []string
	for _, line := range strings.Split(label, "\n") {
		if cleaned := CleanText(line); cleaned != "" {
			fragments = append(fragments, cleaned)
		}
	}
	return fragments
}
