package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the full API surface on the router.
func RegisterRoutes(r *gin.Engine, app App) {
	r.Use(RequestIDMiddleware())

	r.POST("/api/auth/register", Register(app))
	r.POST("/api/auth/login", Login(app))

	r.GET("/api/user/settings", GetUserSettings(app))
	r.PUT("/api/user/settings", UpdateUserSettings(app))

	r.GET("/api/categories", GetCategories(app))
	r.POST("/api/categories", PostCategory(app))
	r.PUT("/api/categories", PutCategory(app))
	r.DELETE("/api/categories", DeleteCategory(app))

	r.GET("/api/habits", GetHabits(app))
	r.POST("/api/habits", PostHabit(app))
	r.PUT("/api/habits", PutHabit(app))
	r.DELETE("/api/habits", DeleteHabit(app))

	r.GET("/api/habits/log", GetHabitLogs(app))
	r.POST("/api/habits/log", PostHabitLog(app))

	r.GET("/api/jokers", GetJokers(app))

	r.GET("/api/friends", GetFriends(app))
	r.POST("/api/friends", PostFriend(app))
	r.PUT("/api/friends", PutFriend(app))
	r.DELETE("/api/friends", DeleteFriend(app))
	r.GET("/api/friends/:userId/tracker", GetFriendTracker(app))

	r.GET("/api/stats", GetStats(app))
}
