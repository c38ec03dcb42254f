package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aprilox/HabbitTracker/internal"
	"github.com/Aprilox/HabbitTracker/internal/api"
	"github.com/Aprilox/HabbitTracker/internal/config"
	"github.com/Aprilox/HabbitTracker/internal/storage"
)

type app struct {
	logger internal.Logger
	repos  *storage.Repositories
}

func (a *app) Logger() internal.Logger                         { return a.logger }
func (a *app) UserRepo() storage.UserRepository                { return a.repos.Users }
func (a *app) CategoryRepo() storage.CategoryRepository        { return a.repos.Categories }
func (a *app) HabitRepo() storage.HabitRepository              { return a.repos.Habits }
func (a *app) LogRepo() storage.LogRepository                  { return a.repos.Logs }
func (a *app) FriendshipRepo() storage.FriendshipRepository    { return a.repos.Friendships }

func newLogger(cfg *config.Config) (internal.Logger, func()) {
	var zl *zap.Logger
	var err error
	if cfg.Env == "production" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	return internal.NewZapLogger(zl.Sugar()), func() { _ = zl.Sync() }
}

func newRepositories(cfg *config.Config, logger internal.Logger) *storage.Repositories {
	var repos *storage.Repositories
	var err error
	switch cfg.DBType {
	case "postgres":
		repos, err = storage.NewPostgresRepositories(cfg.DBDSN, logger)
	case "sqlite":
		repos, err = storage.NewSQLiteRepositories(cfg.SQLiteDB, logger)
	default:
		repos, err = storage.NewFileRepositories(cfg.DataDir, logger)
	}
	if err != nil {
		logger.Fatalf("failed to init storage (%s): %v", cfg.DBType, err)
	}
	return repos
}

func main() {
	cfg := config.Load()
	logger, sync := newLogger(cfg)
	defer sync()

	repos := newRepositories(cfg, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.RegisterRoutes(r, &app{logger: logger, repos: repos})

	go func() {
		logger.Infof("Server running on %s (storage=%s)", cfg.Addr, cfg.DBType)
		if err := r.Run(cfg.Addr); err != nil {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	// Flush storage on SIGINT/SIGTERM before exiting.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")
	if err := repos.Close(); err != nil {
		logger.Errorf("failed to close storage: %v", err)
	}
}
