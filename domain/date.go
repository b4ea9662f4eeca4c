package domain

import "time"

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
// Parsing alone is not enough: time.Parse accepts single-digit components, so
// the round-trip check pins the canonical form.
func ValidDate(s string) bool {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return false
	}
	return t.Format(DateFormat) == s
}

// Today returns the current local date in YYYY-MM-DD form.
func Today() string {
	return time.Now().Format(DateFormat)
}
