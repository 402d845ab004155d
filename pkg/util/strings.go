package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses s as a base-10 int. Empty or malformed input yields def.
func ParseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
