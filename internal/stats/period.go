package stats

import "time"

// Period selects which calendar-day range a query aggregates over.
type Period string

const (
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
	PeriodAll    Period = "all"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodCustom, PeriodAll:
		return true
	}
	return false
}

// Query describes one aggregation request. AsOf is the caller's "now"; no
// date after it is ever evaluated. Month and Year select the month/year
// periods, CustomStart/CustomEnd bound the custom period (each defaulting to
// AsOf when nil), and FirstLog seeds the all-time period (also defaulting to
// AsOf, so a user with no logs gets a single-day range rather than an empty
// one).
type Query struct {
	Period      Period
	Month       time.Month
	Year        int
	CustomStart *time.Time
	CustomEnd   *time.Time
	FirstLog    *time.Time
	AsOf        time.Time
}

// PeriodDates resolves a query to the ordered calendar days it covers,
// ascending, endpoints inclusive, clipped so no day starts after AsOf's day.
func PeriodDates(q Query) []time.Time {
	today := q.AsOf
	loc := today.Location()

	var start, end time.Time
	switch q.Period {
	case PeriodWeek:
		start = WeekStart(today)
		end = start.AddDate(0, 0, 6)
	case PeriodMonth:
		start = time.Date(q.Year, q.Month, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, -1)
	case PeriodYear:
		start = time.Date(q.Year, time.January, 1, 0, 0, 0, 0, loc)
		end = time.Date(q.Year, time.December, 31, 0, 0, 0, 0, loc)
	case PeriodCustom:
		start = midnight(today)
		end = midnight(today)
		if q.CustomStart != nil {
			start = midnight(*q.CustomStart)
		}
		if q.CustomEnd != nil {
			end = midnight(*q.CustomEnd)
		}
	case PeriodAll:
		start = midnight(today)
		if q.FirstLog != nil {
			start = midnight(*q.FirstLog)
		}
		end = midnight(today)
	default:
		return nil
	}

	if end.After(today) {
		end = midnight(today)
	}

	var dates []time.Time
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		dates = append(dates, current)
	}
	return dates
}

// WeeksIn groups already-ordered dates into consecutive runs sharing the same
// WeekStart. A run may hold fewer than 7 days when the period boundary cuts a
// week short.
func WeeksIn(dates []time.Time) [][]time.Time {
	var weeks [][]time.Time
	var currentWeek []time.Time
	var currentStart time.Time

	for _, date := range dates {
		weekStart := WeekStart(date)
		if !weekStart.Equal(currentStart) {
			if len(currentWeek) > 0 {
				weeks = append(weeks, currentWeek)
			}
			currentWeek = []time.Time{date}
			currentStart = weekStart
		} else {
			currentWeek = append(currentWeek, date)
		}
	}
	if len(currentWeek) > 0 {
		weeks = append(weeks, currentWeek)
	}
	return weeks
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
