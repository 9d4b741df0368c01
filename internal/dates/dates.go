// Package dates resolves the free-form date strings found in bank exports,
// including numeric dates whose day and month order is ambiguous.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Hint tells the resolver how to read day/month-ambiguous numeric dates.
type Hint string

// Supported hints.
const (
	HintAuto Hint = "auto"
	HintDMY  Hint = "DMY"
	HintMDY  Hint = "MDY"
)

// ParseHint converts user input into a Hint. An empty string means auto.
func ParseHint(s string) (Hint, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO":
		return HintAuto, nil
	case "DMY":
		return HintDMY, nil
	case "MDY":
		return HintMDY, nil
	}
	return HintAuto, fmt.Errorf("unknown date format %q (use auto, DMY or MDY)", s)
}

// FieldOrder is the order in which a locale writes day and month.
type FieldOrder int

const (
	// MonthFirst reads 01/02/2024 as January 2nd.
	MonthFirst FieldOrder = iota
	// DayFirst reads 01/02/2024 as February 1st.
	DayFirst
)

func (o FieldOrder) String() string {
	if o == DayFirst {
		return "day-first"
	}
	return "month-first"
}

var (
	isoPrefix    = regexp.MustCompile(`^\d{4}[-/]`)
	isoDate      = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:$|[T\s])`)
	numericDate  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	numericGroup = regexp.MustCompile(`\d+`)
)

// genericLayouts are tried when the input is neither ISO-like nor a bare
// numeric date. None of them is day/month ambiguous.
var genericLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2 Jan 06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2006-01-02 15:04:05",
}

// Resolver turns raw date strings into calendar dates.
type Resolver struct {
	// Order is the locale preference used for genuinely ambiguous dates.
	Order FieldOrder
}

// NewResolver returns a resolver that falls back to the given field order.
func NewResolver(order FieldOrder) Resolver {
	return Resolver{Order: order}
}

// Resolve parses raw using the system locale for ambiguous dates.
func Resolve(raw string, hint Hint) (time.Time, bool) {
	return NewResolver(SystemOrder()).Resolve(raw, hint)
}

// Resolve returns the calendar day described by raw at midnight UTC.
//
// Precedence: ISO-like dates are never reinterpreted; an explicit hint only
// applies to slash/dash numeric dates; a first group above 12 forces
// day-first; the locale order is consulted last.
func (r Resolver) Resolve(raw string, hint Hint) (time.Time, bool) {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
	if s == "" {
		return time.Time{}, false
	}

	if isoPrefix.MatchString(s) {
		if m := isoDate.FindStringSubmatch(s); m != nil {
			if d, ok := calendarDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok && plausibleYear(d.Year()) {
				return d, true
			}
		}
	}

	if m := numericDate.FindStringSubmatch(s); m != nil && (hint == HintDMY || hint == HintMDY) {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		if hint == HintDMY {
			return calendarDate(year, second, first)
		}
		return calendarDate(year, first, second)
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil && plausibleYear(t.Year()) {
			return midnightUTC(t), true
		}
	}

	groups := numericGroup.FindAllString(s, -1)
	if len(groups) != 3 {
		return time.Time{}, false
	}

	a, b, c := atoi(groups[0]), atoi(groups[1]), atoi(groups[2])
	switch {
	case len(groups[2]) == 4 && plausibleYear(c):
		if a > 12 || r.Order == DayFirst {
			return calendarDate(c, b, a)
		}
		return calendarDate(c, a, b)
	case len(groups[0]) == 4 && plausibleYear(a):
		return calendarDate(a, b, c)
	}

	return time.Time{}, false
}

// calendarDate builds a UTC midnight date, rejecting values that would roll
// over into another month.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func plausibleYear(y int) bool {
	return y > 1900 && y < 2100
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
