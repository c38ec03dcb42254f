package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/stats"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

// StatsParams are the raw query-string values of a stats request.
type StatsParams struct {
	Period    string
	Month     string
	Year      string
	StartDate string
	EndDate   string
}

// ParseStatsQuery turns raw parameters into an engine query, failing fast on
// anything malformed. Month and year default to asOf's; period defaults to
// the current week.
func ParseStatsQuery(p StatsParams, firstLog *time.Time, asOf time.Time) (stats.Query, error) {
	q := stats.Query{
		Period:   stats.PeriodWeek,
		Month:    asOf.Month(),
		Year:     asOf.Year(),
		FirstLog: firstLog,
		AsOf:     asOf,
	}

	if p.Period != "" {
		q.Period = stats.Period(p.Period)
		if !q.Period.Valid() {
			return stats.Query{}, ErrInvalidPeriodBounds
		}
	}
	if p.Month != "" {
		month, err := strconv.Atoi(p.Month)
		if err != nil || month < 1 || month > 12 {
			return stats.Query{}, ErrInvalidPeriodBounds
		}
		q.Month = time.Month(month)
	}
	if p.Year != "" {
		year, err := strconv.Atoi(p.Year)
		if err != nil || year < 1 {
			return stats.Query{}, ErrInvalidPeriodBounds
		}
		q.Year = year
	}

	start, end, err := ParseRangeBounds(p.StartDate, p.EndDate)
	if err != nil {
		return stats.Query{}, err
	}
	q.CustomStart = start
	q.CustomEnd = end

	return q, nil
}

// HabitResult pairs a habit with its aggregated tally for the period.
type HabitResult struct {
	HabitID   string       `json:"habitId"`
	Name      string       `json:"name"`
	Frequency string       `json:"frequency"`
	Stats     stats.Result `json:"stats"`
}

// CategoryResult carries per-habit results and the category rollup.
type CategoryResult struct {
	CategoryID string        `json:"categoryId"`
	Name       string        `json:"name"`
	Icon       string        `json:"icon"`
	Habits     []HabitResult `json:"habits"`
	Stats      stats.Result  `json:"stats"`
}

// TrackerStats is the full aggregation payload for one user and period.
type TrackerStats struct {
	Categories []CategoryResult `json:"categories"`
	Total      stats.Result     `json:"total"`
}

// ComputeTrackerStats runs the engine once per habit over the supplied
// categories and log map, rolling up per category and overall. Category and
// grand-total percentages come from summed counts, never averaged
// percentages.
func ComputeTrackerStats(categories []internal.Category, logs stats.LogsMap, q stats.Query) *TrackerStats {
	out := &TrackerStats{Categories: make([]CategoryResult, 0, len(categories))}
	for _, cat := range categories {
		cr := CategoryResult{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Icon:       cat.Icon,
			Habits:     make([]HabitResult, 0, len(cat.Habits)),
		}
		catCompleted, catTotal := 0, 0
		for _, habit := range cat.Habits {
			r := stats.HabitStats(habit, logs, q)
			cr.Habits = append(cr.Habits, HabitResult{
				HabitID:   habit.ID,
				Name:      habit.Name,
				Frequency: habit.Frequency,
				Stats:     r,
			})
			catCompleted += r.Completed
			catTotal += r.Total
		}
		cr.Stats = sumResult(catCompleted, catTotal)
		out.Categories = append(out.Categories, cr)
	}
	out.Total = stats.TotalStats(categories, logs, q)
	return out
}

func sumResult(completed, total int) stats.Result {
	r := stats.Result{Completed: completed, Total: total}
	if total > 0 {
		r.Percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return r
}

// UserTrackerStats fetches everything needed for one user's stats and runs
// the engine: the dashboard and the friend-tracker view both go through
// here.
func UserTrackerStats(ctx context.Context, categories storage.CategoryRepository, habits storage.HabitRepository, logRepo storage.LogRepository, userID string, params StatsParams, asOf time.Time) (*TrackerStats, error) {
	cats, err := ListCategoriesWithHabits(ctx, categories, habits, userID)
	if err != nil {
		return nil, err
	}
	window, err := FetchLogs(ctx, logRepo, userID, nil, nil)
	if err != nil {
		return nil, err
	}
	q, err := ParseStatsQuery(params, window.FirstLog, asOf)
	if err != nil {
		return nil, err
	}
	return ComputeTrackerStats(cats, window.Map, q), nil
}
