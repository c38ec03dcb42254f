package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/service"
	"github.com/Aprilox/HabbitTracker/internal/stats"
)

// GetStats is the dashboard's aggregation endpoint: per-habit, per-category
// and overall completion for the selected period.
func GetStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		params := service.StatsParams{
			Period:    c.Query("period"),
			Month:     c.Query("month"),
			Year:      c.Query("year"),
			StartDate: c.Query("startDate"),
			EndDate:   c.Query("endDate"),
		}

		result, err := service.UserTrackerStats(c.Request.Context(), app.CategoryRepo(), app.HabitRepo(), app.LogRepo(), userID, params, time.Now())
		if err != nil {
			if errors.Is(err, service.ErrInvalidPeriodBounds) {
				HandleError(c, app.Logger(), err, 400, "Invalid period bounds")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to compute stats")
			return
		}

		HandleSuccess(c, app.Logger(), result, nil)
	}
}

// GetFriendTracker serves a friend's tracker: profile, categories with
// habits, the flat log map, and the same engine output the owner sees.
// Access requires the viewer to be the owner or an accepted friend.
func GetFriendTracker(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := c.Param("userId")
		viewerID := c.Query("viewerId")
		if viewerID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 401, "Login required to view this tracker")
			return
		}
		ctx := c.Request.Context()

		owner, err := app.UserRepo().GetUser(ctx, ownerID)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "User not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to fetch user")
			return
		}

		allowed, err := service.CanViewTracker(ctx, app.FriendshipRepo(), viewerID, ownerID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to check friendship")
			return
		}
		if !allowed {
			HandleError(c, app.Logger(), service.ErrNotFriends, 403, "You must be friends with this user to view their tracker")
			return
		}

		categories, err := service.ListCategoriesWithHabits(ctx, app.CategoryRepo(), app.HabitRepo(), ownerID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch categories")
			return
		}

		start, end, err := service.ParseRangeBounds(c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid period bounds")
			return
		}
		window, err := service.FetchLogs(ctx, app.LogRepo(), ownerID, start, end)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch logs")
			return
		}

		params := service.StatsParams{
			Period: c.Query("period"),
			Month:  c.Query("month"),
			Year:   c.Query("year"),
		}
		asOf := time.Now()
		q, err := service.ParseStatsQuery(params, window.FirstLog, asOf)
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid period bounds")
			return
		}

		data := gin.H{
			"user":       owner.Public(),
			"categories": categories,
			"logs":       window.StringMap(),
			"stats":      service.ComputeTrackerStats(categories, window.Map, q),
		}
		meta := map[string]any{"weekNumber": stats.WeekNumber(stats.WeekStart(asOf))}
		HandleSuccess(c, app.Logger(), data, meta)
	}
}
