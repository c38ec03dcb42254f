package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/service"
)

// GetFriends serves three list shapes from one endpoint, selected by the
// "type" query: user search, received pending requests, or the friends list
// with received requests attached for the notification badge.
func GetFriends(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId required")
			return
		}
		ctx := c.Request.Context()

		switch c.DefaultQuery("type", "friends") {
		case "search":
			search := c.Query("search")
			if search == "" {
				HandleSuccess(c, app.Logger(), []service.UserSearchResult{}, nil)
				return
			}
			users, err := service.SearchUsers(ctx, app.UserRepo(), app.FriendshipRepo(), userID, search)
			if err != nil {
				HandleError(c, app.Logger(), err, 500, "Failed to search users")
				return
			}
			HandleSuccess(c, app.Logger(), users, nil)

		case "pending":
			pending, err := service.PendingRequests(ctx, app.UserRepo(), app.FriendshipRepo(), userID)
			if err != nil {
				HandleError(c, app.Logger(), err, 500, "Failed to fetch pending requests")
				return
			}
			HandleSuccess(c, app.Logger(), pending, nil)

		default:
			friends, err := service.ListFriends(ctx, app.UserRepo(), app.FriendshipRepo(), userID)
			if err != nil {
				HandleError(c, app.Logger(), err, 500, "Failed to fetch friends")
				return
			}
			received, err := service.PendingRequests(ctx, app.UserRepo(), app.FriendshipRepo(), userID)
			if err != nil {
				HandleError(c, app.Logger(), err, 500, "Failed to fetch pending requests")
				return
			}
			HandleSuccess(c, app.Logger(), friends, map[string]any{"receivedRequests": received})
		}
	}
}

func PostFriend(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID   string `json:"userId"`
			FriendID string `json:"friendId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FriendID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId and friendId required")
			return
		}

		friendship, err := service.RequestFriend(c.Request.Context(), app.UserRepo(), app.FriendshipRepo(), req.UserID, req.FriendID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSelfFriend):
				HandleError(c, app.Logger(), err, 400, "Cannot befriend yourself")
			case errors.Is(err, internal.ErrNotFound):
				HandleError(c, app.Logger(), err, 404, "User not found")
			case errors.Is(err, service.ErrAlreadyFriends):
				HandleError(c, app.Logger(), err, 409, "Already friends")
			case errors.Is(err, service.ErrAlreadyRequested):
				HandleError(c, app.Logger(), err, 409, "Request already sent")
			default:
				HandleError(c, app.Logger(), err, 500, "Failed to send friend request")
			}
			return
		}

		HandleSuccess(c, app.Logger(), friendship, map[string]any{"message": "Request sent"})
	}
}

func PutFriend(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FriendshipID string `json:"friendshipId"`
			Status       string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.FriendshipID == "" || req.Status == "" {
			HandleError(c, app.Logger(), errMissingID, 400, "friendshipId and status required")
			return
		}

		friendship, err := service.RespondToRequest(c.Request.Context(), app.FriendshipRepo(), req.FriendshipID, req.Status)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Friend request not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to update friend request")
			return
		}

		if friendship != nil {
			HandleSuccess(c, app.Logger(), friendship, map[string]any{"message": "Friend added"})
			return
		}
		HandleSuccess(c, app.Logger(), nil, map[string]any{"message": "Request declined"})
	}
}

func DeleteFriend(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID   string `json:"userId"`
			FriendID string `json:"friendId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FriendID == "" {
			HandleError(c, app.Logger(), errMissingUserID, 400, "userId and friendId required")
			return
		}

		if err := service.RemoveFriend(c.Request.Context(), app.FriendshipRepo(), req.UserID, req.FriendID); err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to remove friend")
			return
		}

		HandleSuccess(c, app.Logger(), nil, map[string]any{"message": "Friend removed"})
	}
}
