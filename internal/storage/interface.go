package storage

import (
	"context"
	"time"

	"github.com/Aprilox/HabbitTracker/internal"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *internal.User) error
	GetUser(ctx context.Context, id string) (*internal.User, error)
	GetUserByPseudo(ctx context.Context, pseudo string) (*internal.User, error)
	UpdateUser(ctx context.Context, user *internal.User) error
	// SearchUsers matches pseudos case-insensitively, excluding excludeID.
	SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]internal.User, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, cat *internal.Category) error
	GetCategory(ctx context.Context, id string) (*internal.Category, error)
	// ListCategories returns the user's categories ordered by Order, without
	// nested habits.
	ListCategories(ctx context.Context, userID string) ([]internal.Category, error)
	CountCategories(ctx context.Context, userID string) (int, error)
	UpdateCategory(ctx context.Context, cat *internal.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *internal.Habit) error
	GetHabit(ctx context.Context, id string) (*internal.Habit, error)
	// ListHabits returns the user's active habits ordered by Order;
	// categoryID filters when non-empty.
	ListHabits(ctx context.Context, userID, categoryID string) ([]internal.Habit, error)
	CountHabits(ctx context.Context, categoryID string) (int, error)
	UpdateHabit(ctx context.Context, habit *internal.Habit) error
}

type LogRepository interface {
	// GetLog looks up the single log for a habit on a calendar day, or
	// internal.ErrNotFound.
	GetLog(ctx context.Context, habitID string, date time.Time) (*internal.HabitLog, error)
	SaveLog(ctx context.Context, log *internal.HabitLog) error
	// ListLogs returns a user's logs; start/end bound the range inclusively
	// when non-nil.
	ListLogs(ctx context.Context, userID string, start, end *time.Time) ([]internal.HabitLog, error)
	CountJokers(ctx context.Context, userID string, since time.Time) (int, error)
}

type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, f *internal.Friendship) error
	GetFriendship(ctx context.Context, id string) (*internal.Friendship, error)
	// GetFriendshipBetween finds the relation in either direction, or
	// internal.ErrNotFound.
	GetFriendshipBetween(ctx context.Context, userID, friendID string) (*internal.Friendship, error)
	// ListFriendships returns relations involving userID; status filters when
	// non-empty. Pending requests received by userID are those with
	// FriendID == userID.
	ListFriendships(ctx context.Context, userID, status string) ([]internal.Friendship, error)
	UpdateFriendship(ctx context.Context, f *internal.Friendship) error
	DeleteFriendship(ctx context.Context, id string) error
	// DeleteFriendshipBetween removes the relation in both directions.
	DeleteFriendshipBetween(ctx context.Context, userID, friendID string) error
}
