package service

import (
	"context"
	"time"

	"github.com/Aprilox/HabbitTracker/internal/stats"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

// JokerStatus reports the user's joker quota for the current window.
type JokerStatus struct {
	JokerCount      int    `json:"jokerCount"`
	JokerPeriod     string `json:"jokerPeriod"`
	JokersUsed      int    `json:"jokersUsed"`
	JokersRemaining int    `json:"jokersRemaining"`
}

// jokerWindowStart is the beginning of the user's current quota window:
// Monday of this week, the 1st of this month, or Jan 1 of this year. Unknown
// periods fall back to the week window.
func jokerWindowStart(period string, asOf time.Time) time.Time {
	switch period {
	case "month":
		return time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	case "year":
		return time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location())
	default:
		return stats.WeekStart(asOf)
	}
}

func GetJokerStatus(ctx context.Context, users storage.UserRepository, logs storage.LogRepository, userID string, asOf time.Time) (*JokerStatus, error) {
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := jokerWindowStart(user.JokerPeriod, asOf)
	used, err := logs.CountJokers(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	remaining := user.JokerCount - used
	if remaining < 0 {
		remaining = 0
	}

	return &JokerStatus{
		JokerCount:      user.JokerCount,
		JokerPeriod:     user.JokerPeriod,
		JokersUsed:      used,
		JokersRemaining: remaining,
	}, nil
}
