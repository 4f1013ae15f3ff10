package utils

import (
	"strconv"
)

// ParseInt parses a query value, returning def when empty or malformed.
func ParseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
