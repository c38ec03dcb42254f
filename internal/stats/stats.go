package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/Aprilox/HabbitTracker/internal"
)

// LogKey identifies one (habit, calendar day) pair. The day is a
// FormatDateKey string. Using a struct key avoids the separator ambiguity a
// concatenated "habitId_day" string would have; the flat string form exists
// only at the JSON boundary.
type LogKey struct {
	HabitID string
	Day     string
}

func (k LogKey) String() string {
	return k.HabitID + "_" + k.Day
}

// LogStatus is the per-day state the aggregator consumes. A key absent from
// the map means {Completed: false, IsJoker: false}.
type LogStatus struct {
	Completed bool `json:"completed"`
	IsJoker   bool `json:"isJoker"`
}

// LogsMap is the aggregation input: one entry per logged (habit, day).
// Writers must uphold that IsJoker implies Completed.
type LogsMap map[LogKey]LogStatus

// Result is a completion tally. Percentage is round-half of
// 100*Completed/Total, or 0 when Total is 0.
type Result struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func makeResult(completed, total int) Result {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return Result{Completed: completed, Total: total, Percentage: percentage}
}

// Counts reports the tally as "x/y" for the dashboard header.
func (r Result) Counts() string {
	return fmt.Sprintf("%d/%d", r.Completed, r.Total)
}

// HabitStats aggregates one habit over the query's period.
//
// Daily habits are judged per day: a joker day is excluded from both the
// numerator and the denominator, any other day counts toward the total and,
// when completed, toward the completed count. Future days are never judged.
//
// Weekly habits are judged per Monday-start week: a week with any joker day
// is excluded entirely, otherwise the week counts once and is completed if
// any of its days is. A week is judged as long as at least one of its days
// is not in the future.
func HabitStats(habit internal.Habit, logs LogsMap, q Query) Result {
	dates := PeriodDates(q)

	total := 0
	completed := 0

	if habit.Frequency == internal.FrequencyWeekly {
		for _, week := range WeeksIn(dates) {
			started := false
			for _, day := range week {
				if !day.After(q.AsOf) {
					started = true
					break
				}
			}
			if !started {
				continue
			}
			if weekHasJoker(habit.ID, logs, week) {
				continue
			}
			total++
			if weekHasCompletion(habit.ID, logs, week) {
				completed++
			}
		}
		return makeResult(completed, total)
	}

	for _, date := range dates {
		if date.After(q.AsOf) {
			continue
		}
		status := logs[LogKey{HabitID: habit.ID, Day: FormatDateKey(date)}]
		if status.IsJoker {
			continue
		}
		total++
		if status.Completed {
			completed++
		}
	}
	return makeResult(completed, total)
}

// TotalStats sums HabitStats over every habit of every category and derives
// the percentage from the summed counts, not from averaging per-habit
// percentages, so habits with few observations carry proportional weight.
func TotalStats(categories []internal.Category, logs LogsMap, q Query) Result {
	total := 0
	completed := 0
	for _, cat := range categories {
		for _, habit := range cat.Habits {
			r := HabitStats(habit, logs, q)
			completed += r.Completed
			total += r.Total
		}
	}
	return makeResult(completed, total)
}

// TodayStats tallies the daily habits of all categories for asOf's day,
// jokers excluded. Weekly habits are not judged on a single day.
func TodayStats(categories []internal.Category, logs LogsMap, asOf time.Time) Result {
	day := FormatDateKey(asOf)
	total := 0
	completed := 0
	for _, cat := range categories {
		for _, habit := range cat.Habits {
			if habit.Frequency != internal.FrequencyDaily {
				continue
			}
			status := logs[LogKey{HabitID: habit.ID, Day: day}]
			if status.IsJoker {
				continue
			}
			total++
			if status.Completed {
				completed++
			}
		}
	}
	return makeResult(completed, total)
}

// WeekStats tallies all habits of all categories over one week's days.
// Daily habits count each elapsed day, weekly habits count once per week,
// with joker exclusion at day and week granularity respectively.
func WeekStats(categories []internal.Category, logs LogsMap, weekDays []time.Time, asOf time.Time) Result {
	total := 0
	completed := 0
	for _, cat := range categories {
		for _, habit := range cat.Habits {
			if habit.Frequency == internal.FrequencyDaily {
				for _, day := range weekDays {
					if day.After(asOf) {
						continue
					}
					status := logs[LogKey{HabitID: habit.ID, Day: FormatDateKey(day)}]
					if status.IsJoker {
						continue
					}
					total++
					if status.Completed {
						completed++
					}
				}
				continue
			}
			if weekHasJoker(habit.ID, logs, weekDays) {
				continue
			}
			total++
			if weekHasCompletion(habit.ID, logs, weekDays) {
				completed++
			}
		}
	}
	return makeResult(completed, total)
}

func weekHasJoker(habitID string, logs LogsMap, week []time.Time) bool {
	for _, day := range week {
		if logs[LogKey{HabitID: habitID, Day: FormatDateKey(day)}].IsJoker {
			return true
		}
	}
	return false
}

func weekHasCompletion(habitID string, logs LogsMap, week []time.Time) bool {
	for _, day := range week {
		if logs[LogKey{HabitID: habitID, Day: FormatDateKey(day)}].Completed {
			return true
		}
	}
	return false
}
