package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/stats"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

var ErrInvalidPeriodBounds = errors.New("invalid period bounds")

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type ToggleLogRequest struct {
	UserID    string `json:"userId" validate:"required"`
	HabitID   string `json:"habitId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Completed *bool  `json:"completed,omitempty"`
	Count     *int   `json:"count,omitempty"`
	IsJoker   *bool  `json:"isJoker,omitempty"`
}

func ValidateToggleLogRequest(req *ToggleLogRequest) error {
	return validate.Struct(req)
}

// ParseLogDate normalizes a request date to midnight UTC. A bare YYYY-MM-DD
// key is taken as that calendar day; anything else must be RFC 3339 and is
// truncated to its UTC day.
func ParseLogDate(raw string) (time.Time, error) {
	if dateKeyPattern.MatchString(raw) {
		return time.Parse("2006-01-02", raw)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidPeriodBounds
	}
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// ToggleLog creates or updates the single log for (habit, day). An absent
// "completed" flips the stored value on update and defaults to true on
// create. Marking a joker always marks the day completed as well; the
// aggregation engine relies on that invariant.
func ToggleLog(ctx context.Context, logs storage.LogRepository, req *ToggleLogRequest) (*internal.HabitLog, error) {
	date, err := ParseLogDate(req.Date)
	if err != nil {
		return nil, err
	}

	log, err := logs.GetLog(ctx, req.HabitID, date)
	switch {
	case err == nil:
		if req.Completed != nil {
			log.Completed = *req.Completed
		} else {
			log.Completed = !log.Completed
		}
		if req.Count != nil {
			log.Count = req.Count
		}
		if req.IsJoker != nil {
			log.IsJoker = *req.IsJoker
		}
	case errors.Is(err, internal.ErrNotFound):
		completed := true
		if req.Completed != nil {
			completed = *req.Completed
		}
		log = &internal.HabitLog{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			HabitID:   req.HabitID,
			Date:      date,
			Completed: completed,
			Count:     req.Count,
			IsJoker:   req.IsJoker != nil && *req.IsJoker,
			CreatedAt: time.Now(),
		}
	default:
		return nil, err
	}

	if log.IsJoker {
		log.Completed = true
	}

	if err := logs.SaveLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// LogWindow is a fetched slice of log history plus the derived structures the
// aggregation engine and the client consume.
type LogWindow struct {
	Logs     []internal.HabitLog
	Map      stats.LogsMap
	FirstLog *time.Time
}

// FetchLogs loads a user's logs (optionally range-bounded) and indexes them
// by (habit, day). FirstLog is the earliest date seen, the seed for the
// all-time period.
func FetchLogs(ctx context.Context, logs storage.LogRepository, userID string, start, end *time.Time) (*LogWindow, error) {
	list, err := logs.ListLogs(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	w := &LogWindow{Logs: list, Map: make(stats.LogsMap, len(list))}
	for _, l := range list {
		key := stats.LogKey{HabitID: l.HabitID, Day: stats.FormatDateKey(l.Date.UTC())}
		w.Map[key] = stats.LogStatus{Completed: l.Completed, IsJoker: l.IsJoker}
		if w.FirstLog == nil || l.Date.Before(*w.FirstLog) {
			d := l.Date
			w.FirstLog = &d
		}
	}
	return w, nil
}

// StringMap flattens the window's log map to the "{habitId}_{YYYY-MM-DD}"
// keyed form served to clients.
func (w *LogWindow) StringMap() map[string]stats.LogStatus {
	out := make(map[string]stats.LogStatus, len(w.Map))
	for key, status := range w.Map {
		out[key.String()] = status
	}
	return out
}

// ParseRangeBounds parses optional startDate/endDate query values, failing
// fast on malformed input instead of letting it reach the engine.
func ParseRangeBounds(startDate, endDate string) (start, end *time.Time, err error) {
	if startDate != "" {
		t, perr := time.Parse("2006-01-02", startDate)
		if perr != nil {
			return nil, nil, ErrInvalidPeriodBounds
		}
		start = &t
	}
	if endDate != "" {
		t, perr := time.Parse("2006-01-02", endDate)
		if perr != nil {
			return nil, nil, ErrInvalidPeriodBounds
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, ErrInvalidPeriodBounds
	}
	return start, end, nil
}
