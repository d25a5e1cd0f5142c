// Package strings splits delimited cell values into series tokens.
package strings

import (
	stdstrings "strings"
)

// TrimDelimiter removes every leading and trailing occurrence of delimiter.
// "0.1;0.2;" and ";;0.1;0.2" both become "0.1;0.2".
func TrimDelimiter(s, delimiter string) string {
	if delimiter == "" {
		return s
	}
	for stdstrings.HasPrefix(s, delimiter) {
		s = s[len(delimiter):]
	}
	for stdstrings.HasSuffix(s, delimiter) {
		s = s[:len(s)-len(delimiter)]
	}
	return s
}

// Tokens trims the delimiter from both ends of cell and splits the rest.
// An empty (or delimiter-only) cell has no tokens. Empty tokens between two
// delimiters are kept.
func Tokens(cell, delimiter string) []string {
	trimmed := TrimDelimiter(cell, delimiter)
	if trimmed == "" {
		return nil
	}
	if delimiter == "" {
		return []string{trimmed}
	}
	return stdstrings.Split(trimmed, delimiter)
}
