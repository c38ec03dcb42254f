package api

import (
	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

type App interface {
	Logger() internal.Logger
	UserRepo() storage.UserRepository
	CategoryRepo() storage.CategoryRepository
	HabitRepo() storage.HabitRepository
	LogRepo() storage.LogRepository
	FriendshipRepo() storage.FriendshipRepository
}
