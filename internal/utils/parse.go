// Package utils contains small helpers shared across the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as an integer, returning def when s is empty or not a
// valid number. Used for query parameters like limit and days.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
