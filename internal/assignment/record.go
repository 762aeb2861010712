// Package assignment holds the tracked assignments, the edit session that
// routes form submissions, and the values derived from due dates.
package assignment

import (
	"strings"
	"time"
)

// DateLayout is the form and display format for due dates.
const DateLayout = "2006-01-02"

type Record struct {
	ID    string
	Title string
	Due   time.Time
}

// DueString formats the due date, in local time, the way the form accepts it.
func (r Record) DueString() string {
	return r.Due.Local().Format(DateLayout)
}

// ParseDue reads a form value. A bare date is midnight in time.Local;
// RFC 3339 timestamps are accepted as well.
func ParseDue(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, ErrMissingDue
	}
	if t, err := time.ParseInLocation(DateLayout, v, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDue
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
