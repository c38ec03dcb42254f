package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/service"
)

func GetCategories(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		categories, err := service.ListCategoriesWithHabits(c.Request.Context(), app.CategoryRepo(), app.HabitRepo(), userID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch categories")
			return
		}

		HandleSuccess(c, app.Logger(), categories, nil)
	}
}

func PostCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateCategoryRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "userId and name required")
			return
		}

		cat, err := service.CreateCategory(c.Request.Context(), app.CategoryRepo(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to create category")
			return
		}

		HandleSuccess(c, app.Logger(), cat, nil)
	}
}

func PutCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateCategoryUpdateRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "id required")
			return
		}

		cat, err := service.UpdateCategory(c.Request.Context(), app.CategoryRepo(), &req)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Category not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to update category")
			return
		}

		HandleSuccess(c, app.Logger(), cat, nil)
	}
}

func DeleteCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ID string `json:"id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			HandleError(c, app.Logger(), errMissingID, 400, "id required")
			return
		}

		if err := app.CategoryRepo().DeleteCategory(c.Request.Context(), req.ID); err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Category not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to delete category")
			return
		}

		HandleSuccess(c, app.Logger(), nil, map[string]any{"message": "Category deleted"})
	}
}
