// Package utils provides the logger and text helpers shared by the commands.
package utils

import "strings"

// Truncate returns s cut to at most maxLen runes, with "..." appended if it
// was cut. A maxLen of 0 or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// SingleLine collapses every run of whitespace in s, newlines included, into
// one space. Parser errors can span lines; one-line-per-problem output needs them flat.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
