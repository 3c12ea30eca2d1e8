// internal/domain/calendar/date.go
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no time-of-day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// acceptedLayouts is tried in order; the first layout that parses wins.
// "03/04/2025" therefore reads as March 4 (M/D/Y precedes D/M/Y).
var acceptedLayouts = []string{
	"2006-1-2",        // ISO, padding optional
	"1/2/2006",        // US
	"1/2/06",          // US, short year
	"2/1/2006",        // EU
	"2/1/06",          // EU, short year
	"2006/1/2",        // Y/M/D
	"Jan 2, 2006",     // Dec 05, 2025
	"January 2, 2006", // December 5, 2025
	"2 Jan 2006",      // 5 Dec 2025
	"2 January 2006",  // 5 December 2025
	"1-2-2006",        // 12-05-2025
}

// ParseDate reads free text written in one of the accepted layouts.
// ok is false for empty or unrecognised text.
func ParseDate(text string) (Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, false
	}
	for _, layout := range acceptedLayouts {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		return DateOf(t), true
	}
	return Date{}, false
}

// DateOf drops the clock part of t, keeping t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) Date {
	return DateOf(now.In(loc))
}

// IsWeekend reports whether now falls on Saturday or Sunday in loc.
func IsWeekend(now time.Time, loc *time.Location) bool {
	switch now.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.midnight().Before(other.midnight())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.midnight().After(other.midnight())
}

// AddDays returns d shifted by n days (negative n goes back).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
