package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/service"
)

func GetHabits(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		habits, err := app.HabitRepo().ListHabits(c.Request.Context(), userID, c.Query("categoryId"))
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch habits")
			return
		}

		HandleSuccess(c, app.Logger(), habits, nil)
	}
}

func PostHabit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.HabitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateHabitRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "userId, categoryId and name required")
			return
		}

		habit, err := service.CreateHabit(c.Request.Context(), app.HabitRepo(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to create habit")
			return
		}

		HandleSuccess(c, app.Logger(), habit, nil)
	}
}

func PutHabit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.HabitUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateHabitUpdateRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "id required")
			return
		}

		habit, err := service.UpdateHabit(c.Request.Context(), app.HabitRepo(), &req)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Habit not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to update habit")
			return
		}

		HandleSuccess(c, app.Logger(), habit, nil)
	}
}

// DeleteHabit archives rather than deletes, so history stays intact.
func DeleteHabit(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ID string `json:"id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			HandleError(c, app.Logger(), errMissingID, 400, "id required")
			return
		}

		if err := service.ArchiveHabit(c.Request.Context(), app.HabitRepo(), req.ID); err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Habit not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to delete habit")
			return
		}

		HandleSuccess(c, app.Logger(), nil, map[string]any{"message": "Habit deleted"})
	}
}
