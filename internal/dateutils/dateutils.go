// Package dateutils provides date parsing helpers for source records.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayoutISO is the wire format used by both upstream collaborators.
const DateLayoutISO = "2006-01-02"

// commonFormats lists the formats tried when a source record carries a
// non-ISO date string.
var commonFormats = []string{
	DateLayoutISO,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02.01.2006",
}

// ParseDate parses a source date string, trying ISO first and a few
// fallback formats after. Only the calendar date matters downstream;
// any time component is truncated.
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, format := range commonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
