package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal/service"
	"github.com/Aprilox/HabbitTracker/internal/stats"
)

// GetHabitLogs returns a user's logs for an optional date range, along with
// the flat "{habitId}_{YYYY-MM-DD}" map and first-log date the client feeds
// into period selection.
func GetHabitLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		start, end, err := service.ParseRangeBounds(c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid period bounds")
			return
		}

		window, err := service.FetchLogs(c.Request.Context(), app.LogRepo(), userID, start, end)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch logs")
			return
		}

		meta := map[string]any{"logsMap": window.StringMap()}
		if window.FirstLog != nil {
			meta["firstLogDate"] = stats.FormatDateKey(window.FirstLog.UTC())
		}
		HandleSuccess(c, app.Logger(), window.Logs, meta)
	}
}

func PostHabitLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ToggleLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateToggleLogRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "userId, habitId and date required")
			return
		}

		log, err := service.ToggleLog(c.Request.Context(), app.LogRepo(), &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidPeriodBounds) {
				HandleError(c, app.Logger(), err, 400, "Invalid date")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to save log")
			return
		}

		HandleSuccess(c, app.Logger(), log, nil)
	}
}

func GetJokers(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		status, err := service.GetJokerStatus(c.Request.Context(), app.UserRepo(), app.LogRepo(), userID, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 404, "User not found")
			return
		}

		HandleSuccess(c, app.Logger(), status, nil)
	}
}
