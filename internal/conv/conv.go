// Package conv converts fixup text into typed values. Every converter falls
// back to a caller-supplied default instead of failing, so conversions can run
// per instance without error handling.
package conv

import (
	"math"
	"strconv"
	"strings"
)

// Int parses an integer. Text that is a valid float is truncated towards zero.
func Int(s string, def int64) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if i, err := strconv.ParseInt(strings.ReplaceAll(s, "_", ""), 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return def
	}
	return int64(f)
}

// Float parses a float.
func Float(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

var boolLookup = map[string]bool{
	"0":     false,
	"false": false,
	"no":    false,
	"n":     false,
	"f":     false,
	"1":     true,
	"true":  true,
	"yes":   true,
	"y":     true,
	"t":     true,
}

// Bool parses the usual spellings of a boolean: 1/0, true/false, yes/no and
// their single letter forms, case-insensitively.
func Bool(s string, def bool) bool {
	if b, ok := boolLookup[strings.ToLower(strings.TrimSpace(s))]; ok {
		return b
	}
	return def
}

// FormatBool renders a boolean the way fixups store it.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
