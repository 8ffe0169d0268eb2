package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// HasColumn reports whether the DataFrame carries the named column.
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// DateLayouts are the accepted flight date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

// ParseDate parses a flight date string against DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Round2 rounds half away from zero to 2 decimals (currency).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round3 rounds half away from zero to 3 decimals (multipliers, rates).
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayIndex converts to the 0=Monday..6=Sunday convention.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func WeekdayName(index int) string {
	if index < 0 || index >= len(weekdayNames) {
		return "Unknown"
	}
	return weekdayNames[index]
}

// SeasonOf maps a calendar month to its season name.
// The partition is fixed: Dec-Feb Winter, Mar-May Spring,
// Jun-Aug Summer, Sep-Nov Fall.
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

// DelayBuckets lists the delay categories in ascending severity.
var DelayBuckets = []string{"No Delay", "0-1h", "1-2h", "2-3h", ">3h"}

// DelayBucket labels a delay duration in hours. Buckets are
// right-closed: 1.0 falls in 0-1h, not 1-2h.
func DelayBucket(hours float64) string {
	switch {
	case hours <= 0:
		return "No Delay"
	case hours <= 1:
		return "0-1h"
	case hours <= 2:
		return "1-2h"
	case hours <= 3:
		return "2-3h"
	default:
		return ">3h"
	}
}
