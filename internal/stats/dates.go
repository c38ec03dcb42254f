// Package stats computes joker-aware habit completion rates over calendar
// periods. It is pure: the reference instant is always passed in as asOf,
// never read from the ambient clock, and every function only reads its
// inputs.
package stats

import (
	"fmt"
	"math"
	"time"
)

// FormatDateKey renders a calendar date as YYYY-MM-DD from its local calendar
// fields. Two instants are the same day iff their keys are equal.
func FormatDateKey(date time.Time) string {
	year, month, day := date.Date()
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// ParseDateKey is the inverse of FormatDateKey, yielding midnight UTC.
func ParseDateKey(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}

// WeekStart returns the Monday at midnight of the week containing date.
// Weeks run Monday through Sunday; Sunday counts as the 7th day of the
// preceding week.
func WeekStart(date time.Time) time.Time {
	offset := 1 - int(date.Weekday())
	if date.Weekday() == time.Sunday {
		offset = -6
	}
	year, month, day := date.Date()
	return time.Date(year, month, day+offset, 0, 0, 0, 0, date.Location())
}

// WeekDays returns the 7 consecutive days starting at weekStart.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// WeekNumber is the day-offset week number: ceil((date - Jan 1)/7 days).
// This is deliberately not ISO-8601 week numbering; it diverges from it near
// year boundaries and callers rely on the displayed numbers staying stable.
func WeekNumber(date time.Time) int {
	startOfYear := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
	diff := date.Sub(startOfYear)
	const oneWeek = 7 * 24 * time.Hour
	return int(math.Ceil(float64(diff) / float64(oneWeek)))
}

var dayNames = [7]string{"di", "lu", "ma", "me", "je", "ve", "sa"}

var monthShort = [12]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// DayName returns the two-letter French weekday label used by the tracker UI.
func DayName(date time.Time) string {
	return dayNames[int(date.Weekday())]
}

// FormatDateShort renders a date as "2 janv." style French short form.
func FormatDateShort(date time.Time) string {
	return fmt.Sprintf("%d %s", date.Day(), monthShort[int(date.Month())-1])
}

// IsSameDay reports whether two instants fall on the same calendar day.
func IsSameDay(d1, d2 time.Time) bool {
	return FormatDateKey(d1) == FormatDateKey(d2)
}

// IsCurrentWeek reports whether weekStart is the Monday of the week
// containing asOf.
func IsCurrentWeek(weekStart, asOf time.Time) bool {
	return weekStart.Equal(WeekStart(asOf))
}

// YearOptions lists the selectable years from startYear through asOf's year.
func YearOptions(startYear int, asOf time.Time) []int {
	var years []int
	for year := startYear; year <= asOf.Year(); year++ {
		years = append(years, year)
	}
	return years
}
