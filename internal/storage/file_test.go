package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Aprilox/HabbitTracker/internal"
)

func newFileStorage(t *testing.T, dir string) *FileStorage {
	t.Helper()
	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	s, err := NewFileStorage(dir, logger)
	require.NoError(t, err)
	return s
}

func utcDay(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestFileStorageSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newFileStorage(t, dir)

	user := &internal.User{ID: "u1", Pseudo: "Alice", JokerCount: 1, JokerPeriod: "week", CreatedAt: time.Now()}
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateCategory(ctx, &internal.Category{ID: "c1", UserID: "u1", Name: "Santé", Order: 0}))
	require.NoError(t, s.CreateHabit(ctx, &internal.Habit{ID: "h1", UserID: "u1", CategoryID: "c1", Name: "Dormir", Frequency: internal.FrequencyDaily, IsActive: true}))
	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: utcDay(2025, time.June, 18), Completed: true}))
	require.NoError(t, s.Close())

	// Flushed files are plain JSON arrays on disk.
	assert.FileExists(t, filepath.Join(dir, "users.json"))
	assert.FileExists(t, filepath.Join(dir, "habit_logs.json"))

	reopened := newFileStorage(t, dir)
	defer reopened.Close()

	got, err := reopened.GetUserByPseudo(ctx, "alice")
	require.NoError(t, err, "pseudo lookup is case-insensitive")
	assert.Equal(t, "u1", got.ID)

	log, err := reopened.GetLog(ctx, "h1", utcDay(2025, time.June, 18))
	require.NoError(t, err)
	assert.True(t, log.Completed)

	habits, err := reopened.ListHabits(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Len(t, habits, 1)
}

func TestFileStorageOneLogPerHabitDay(t *testing.T) {
	ctx := context.Background()
	s := newFileStorage(t, t.TempDir())
	defer s.Close()

	date := utcDay(2025, time.June, 18)
	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: date, Completed: true}))

	// A save under a new ID for the same (habit, day) replaces the old entry.
	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l2", UserID: "u1", HabitID: "h1", Date: date, Completed: false, IsJoker: true}))

	logs, err := s.ListLogs(ctx, "u1", nil, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "l2", logs[0].ID)
	assert.True(t, logs[0].IsJoker)
}

func TestFileStorageListLogsRange(t *testing.T) {
	ctx := context.Background()
	s := newFileStorage(t, t.TempDir())
	defer s.Close()

	for i, d := range []int{10, 15, 20} {
		require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{
			ID: "l" + string(rune('a'+i)), UserID: "u1", HabitID: "h1",
			Date: utcDay(2025, time.June, d), Completed: true,
		}))
	}

	start := utcDay(2025, time.June, 12)
	end := utcDay(2025, time.June, 18)
	logs, err := s.ListLogs(ctx, "u1", &start, &end)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, utcDay(2025, time.June, 15), logs[0].Date.UTC())

	// Bounds are inclusive and results are date-ordered.
	start = utcDay(2025, time.June, 10)
	end = utcDay(2025, time.June, 20)
	logs, err = s.ListLogs(ctx, "u1", &start, &end)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].Date.Before(logs[2].Date))
}

func TestFileStorageCountJokers(t *testing.T) {
	ctx := context.Background()
	s := newFileStorage(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: utcDay(2025, time.June, 16), Completed: true, IsJoker: true}))
	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l2", UserID: "u1", HabitID: "h2", Date: utcDay(2025, time.June, 10), Completed: true, IsJoker: true}))
	require.NoError(t, s.SaveLog(ctx, &internal.HabitLog{ID: "l3", UserID: "u1", HabitID: "h3", Date: utcDay(2025, time.June, 17), Completed: true}))

	count, err := s.CountJokers(ctx, "u1", utcDay(2025, time.June, 16))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.CountJokers(ctx, "u1", utcDay(2025, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFileStorageUpdateUserReindexesPseudo(t *testing.T) {
	ctx := context.Background()
	s := newFileStorage(t, t.TempDir())
	defer s.Close()

	user := &internal.User{ID: "u1", Pseudo: "alice"}
	require.NoError(t, s.CreateUser(ctx, user))

	user.Pseudo = "alicia"
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err := s.GetUserByPseudo(ctx, "alice")
	assert.ErrorIs(t, err, internal.ErrNotFound)
	got, err := s.GetUserByPseudo(ctx, "ALICIA")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestFileStorageFriendshipsBothDirections(t *testing.T) {
	ctx := context.Background()
	s := newFileStorage(t, t.TempDir())
	defer s.Close()

	f := &internal.Friendship{ID: "f1", UserID: "u1", FriendID: "u2", Status: internal.FriendshipPending, CreatedAt: time.Now()}
	require.NoError(t, s.CreateFriendship(ctx, f))

	got, err := s.GetFriendshipBetween(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "f1", got.ID)

	require.NoError(t, s.DeleteFriendshipBetween(ctx, "u2", "u1"))
	_, err = s.GetFriendshipBetween(ctx, "u1", "u2")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}
