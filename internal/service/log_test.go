package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/stats"
)

func boolPtr(b bool) *bool { return &b }

func TestParseLogDate(t *testing.T) {
	want := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)

	got, err := ParseLogDate("2025-06-18")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	// RFC 3339 instants are truncated to their UTC day.
	got, err = ParseLogDate("2025-06-18T23:15:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = ParseLogDate("18/06/2025")
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
}

func TestToggleLogCreateAndToggle(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	req := &ToggleLogRequest{UserID: "u1", HabitID: "h1", Date: "2025-06-18"}

	// Create defaults to completed.
	log, err := ToggleLog(ctx, repos.Logs, req)
	require.NoError(t, err)
	assert.True(t, log.Completed)
	firstID := log.ID

	// A second call without an explicit value flips it back.
	log, err = ToggleLog(ctx, repos.Logs, req)
	require.NoError(t, err)
	assert.False(t, log.Completed)
	assert.Equal(t, firstID, log.ID, "same (habit, day) keeps one log")

	// An explicit value wins over the toggle.
	req.Completed = boolPtr(false)
	log, err = ToggleLog(ctx, repos.Logs, req)
	require.NoError(t, err)
	assert.False(t, log.Completed)
}

func TestToggleLogJokerImpliesCompleted(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	log, err := ToggleLog(ctx, repos.Logs, &ToggleLogRequest{
		UserID:    "u1",
		HabitID:   "h1",
		Date:      "2025-06-18",
		Completed: boolPtr(false),
		IsJoker:   boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, log.IsJoker)
	assert.True(t, log.Completed, "a joker day always counts as completed")

	stored, err := repos.Logs.GetLog(ctx, "h1", time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestFetchLogsBuildsMapAndFirstLog(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for _, date := range []string{"2025-06-18", "2025-06-10"} {
		_, err := ToggleLog(ctx, repos.Logs, &ToggleLogRequest{UserID: "u1", HabitID: "h1", Date: date})
		require.NoError(t, err)
	}

	window, err := FetchLogs(ctx, repos.Logs, "u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, window.Logs, 2)
	require.NotNil(t, window.FirstLog)
	assert.Equal(t, "2025-06-10", stats.FormatDateKey(window.FirstLog.UTC()))

	status, ok := window.Map[stats.LogKey{HabitID: "h1", Day: "2025-06-18"}]
	require.True(t, ok)
	assert.True(t, status.Completed)

	flat := window.StringMap()
	assert.Contains(t, flat, "h1_2025-06-18")
	assert.Contains(t, flat, "h1_2025-06-10")
}

func TestParseRangeBounds(t *testing.T) {
	start, end, err := ParseRangeBounds("", "")
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end, err = ParseRangeBounds("2025-06-01", "2025-06-18")
	require.NoError(t, err)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.True(t, start.Before(*end))

	_, _, err = ParseRangeBounds("junk", "")
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)

	// Inverted bounds fail fast instead of yielding an empty range.
	_, _, err = ParseRangeBounds("2025-06-18", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
}

func TestParseStatsQuery(t *testing.T) {
	asOf := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)

	q, err := ParseStatsQuery(StatsParams{}, nil, asOf)
	require.NoError(t, err)
	assert.Equal(t, stats.PeriodWeek, q.Period)
	assert.Equal(t, time.June, q.Month)
	assert.Equal(t, 2025, q.Year)
	assert.True(t, q.AsOf.Equal(asOf))

	q, err = ParseStatsQuery(StatsParams{Period: "month", Month: "4", Year: "2024"}, nil, asOf)
	require.NoError(t, err)
	assert.Equal(t, stats.PeriodMonth, q.Period)
	assert.Equal(t, time.April, q.Month)
	assert.Equal(t, 2024, q.Year)

	_, err = ParseStatsQuery(StatsParams{Period: "fortnight"}, nil, asOf)
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
	_, err = ParseStatsQuery(StatsParams{Month: "13"}, nil, asOf)
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
	_, err = ParseStatsQuery(StatsParams{Year: "0"}, nil, asOf)
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
	_, err = ParseStatsQuery(StatsParams{StartDate: "2025-06-18", EndDate: "2025-06-01"}, nil, asOf)
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
}

func TestJokerWindowStart(t *testing.T) {
	asOf := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC), jokerWindowStart("week", asOf))
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), jokerWindowStart("month", asOf))
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), jokerWindowStart("year", asOf))
	assert.Equal(t, jokerWindowStart("week", asOf), jokerWindowStart("unknown", asOf))
}

func TestGetJokerStatus(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	user := registerTestUser(t, repos, "henri")
	asOf := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)

	// One joker inside the current week, one before Monday: only the first
	// counts against the quota.
	for _, date := range []string{"2025-06-17", "2025-06-10"} {
		_, err := ToggleLog(ctx, repos.Logs, &ToggleLogRequest{
			UserID:  user.ID,
			HabitID: "h1-" + date,
			Date:    date,
			IsJoker: boolPtr(true),
		})
		require.NoError(t, err)
	}

	status, err := GetJokerStatus(ctx, repos.Users, repos.Logs, user.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, status.JokerCount)
	assert.Equal(t, "week", status.JokerPeriod)
	assert.Equal(t, 1, status.JokersUsed)
	assert.Equal(t, 0, status.JokersRemaining)

	// Widening the window to the month counts both, and remaining never goes
	// negative.
	period := "month"
	_, err = UpdateSettings(ctx, repos.Users, &SettingsRequest{UserID: user.ID, JokerPeriod: &period})
	require.NoError(t, err)

	status, err = GetJokerStatus(ctx, repos.Users, repos.Logs, user.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, status.JokersUsed)
	assert.Equal(t, 0, status.JokersRemaining)

	_, err = GetJokerStatus(ctx, repos.Users, repos.Logs, "missing", asOf)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestUserTrackerStats(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	user := registerTestUser(t, repos, "iris")
	asOf := time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC)

	cat, err := CreateCategory(ctx, repos.Categories, &CategoryRequest{UserID: user.ID, Name: "Santé"})
	require.NoError(t, err)
	habit, err := CreateHabit(ctx, repos.Habits, &HabitRequest{UserID: user.ID, CategoryID: cat.ID, Name: "Dormir 8h"})
	require.NoError(t, err)

	// Monday completed, Tuesday jokered, Wednesday missed.
	_, err = ToggleLog(ctx, repos.Logs, &ToggleLogRequest{UserID: user.ID, HabitID: habit.ID, Date: "2025-06-16"})
	require.NoError(t, err)
	_, err = ToggleLog(ctx, repos.Logs, &ToggleLogRequest{UserID: user.ID, HabitID: habit.ID, Date: "2025-06-17", IsJoker: boolPtr(true)})
	require.NoError(t, err)

	result, err := UserTrackerStats(ctx, repos.Categories, repos.Habits, repos.Logs, user.ID, StatsParams{Period: "week"}, asOf)
	require.NoError(t, err)
	require.Len(t, result.Categories, 1)
	require.Len(t, result.Categories[0].Habits, 1)

	want := stats.Result{Completed: 1, Total: 2, Percentage: 50}
	assert.Equal(t, want, result.Categories[0].Habits[0].Stats)
	assert.Equal(t, want, result.Categories[0].Stats)
	assert.Equal(t, want, result.Total)

	_, err = UserTrackerStats(ctx, repos.Categories, repos.Habits, repos.Logs, user.ID, StatsParams{Period: "nope"}, asOf)
	assert.ErrorIs(t, err, ErrInvalidPeriodBounds)
}
