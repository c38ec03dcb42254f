package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/service"
)

func Register(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateRegisterRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Pseudo and a password of at least 6 characters are required")
			return
		}

		user, err := service.Register(c.Request.Context(), app.UserRepo(), &req)
		if err != nil {
			if errors.Is(err, service.ErrPseudoTaken) {
				HandleError(c, app.Logger(), err, 409, "Pseudo already taken")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to create account")
			return
		}

		HandleSuccess(c, app.Logger(), user, map[string]any{"message": "Account created"})
	}
}

func Login(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateLoginRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Pseudo and password required")
			return
		}

		user, err := service.Login(c.Request.Context(), app.UserRepo(), &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				HandleError(c, app.Logger(), err, 401, "Incorrect pseudo or password")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to log in")
			return
		}

		HandleSuccess(c, app.Logger(), user, nil)
	}
}

func GetUserSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}

		user, err := app.UserRepo().GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "User not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to fetch user")
			return
		}

		HandleSuccess(c, app.Logger(), user, nil)
	}
}

func UpdateUserSettings(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateSettingsRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Settings validation failed")
			return
		}

		user, err := service.UpdateSettings(c.Request.Context(), app.UserRepo(), &req)
		if err != nil {
			switch {
			case errors.Is(err, internal.ErrNotFound):
				HandleError(c, app.Logger(), err, 404, "User not found")
			case errors.Is(err, service.ErrWrongPassword):
				HandleError(c, app.Logger(), err, 401, "Old password incorrect")
			case errors.Is(err, service.ErrPseudoTaken):
				HandleError(c, app.Logger(), err, 409, "Pseudo already taken")
			default:
				HandleError(c, app.Logger(), err, 500, "Failed to update settings")
			}
			return
		}

		HandleSuccess(c, app.Logger(), user, nil)
	}
}
