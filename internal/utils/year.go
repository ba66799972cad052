package utils

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var yearRegex = regexp.MustCompile(`\b(1[0-9]{3}|2[0-9]{3})\b`)

// ExtractYear derives a 4-digit calendar year from whatever an upstream sends:
// a full date ("2024-02-27"), a timestamp, a year-only string or number, or nothing.
// Returns nil when no year can be found.
func ExtractYear(value interface{}) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case *int:
		if v == nil {
			return nil
		}
		return ExtractYear(*v)
	case int:
		return validYear(v)
	case int64:
		return validYear(int(v))
	case float64:
		return validYear(int(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return validYear(int(n))
		}
		return ExtractYear(v.String())
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return validYear(v.Year())
	case *string:
		if v == nil {
			return nil
		}
		return ExtractYear(*v)
	case string:
		return yearFromString(v)
	}
	return nil
}

func yearFromString(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Dates lead with the year: "2024", "2024-02", "2024-02-27", "2024-02-27T00:00:00Z"
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil && (len(s) == 4 || !isDigit(s[4])) {
			return validYear(y)
		}
	}
	matches := yearRegex.FindStringSubmatch(s)
	if len(matches) > 1 {
		if y, err := strconv.Atoi(matches[1]); err == nil {
			return validYear(y)
		}
	}
	return nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func validYear(y int) *int {
	if y < 1000 || y > 9999 {
		return nil
	}
	return &y
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to v, or nil when v is empty
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
