package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"recipeapp/internal/auth"
	"recipeapp/internal/cache"
	"recipeapp/internal/config"
	"recipeapp/internal/db"
	"recipeapp/internal/logger"
	"recipeapp/internal/metrics"
	"recipeapp/internal/repository"
	"recipeapp/internal/service"
	"recipeapp/internal/storage"
)

// App holds the wired infrastructure and services shared by the server and the CLI.
type App struct {
	Config  *config.Config
	Log     logger.Logger
	DB      *gorm.DB
	Cache   *cache.Client
	Images  storage.ImageStore
	Metrics *metrics.Metrics
	JWT     *auth.JWTService

	Recipes service.RecipeService
	Users   service.UserService
	Auth    service.AuthService
}

// New opens the database, runs migrations and builds every service.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB=true, dropping all tables", nil)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, caching and logout revocation disabled", logger.Fields{"addr": cfg.RedisAddr, "error": err.Error()})
	}

	images, err := storage.New(ctx, cfg.Storage, cfg.Upload.Dir)
	if err != nil {
		return nil, fmt.Errorf("image storage init: %w", err)
	}

	m := metrics.New()

	// Initialize repositories
	recipeRepo := repository.NewRecipeRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	sessionStore := auth.NewSessionStore(cacheClient)

	return &App{
		Config:  cfg,
		Log:     log,
		DB:      gormDB,
		Cache:   cacheClient,
		Images:  images,
		Metrics: m,
		JWT:     jwtService,
		Recipes: service.NewRecipeService(recipeRepo, images, cacheClient, log, m, cfg.Upload.MaxFileSize),
		Users:   service.NewUserService(userRepo, log),
		Auth:    service.NewAuthService(userRepo, jwtService, sessionStore, log, m),
	}, nil
}

// Bootstrap seeds the default accounts.
func (a *App) Bootstrap(ctx context.Context) error {
	created, err := a.Users.Bootstrap(ctx, a.Config.BootstrapPassword)
	if err != nil {
		return err
	}
	if len(created) > 0 {
		a.Log.Info("bootstrap complete", logger.Fields{"created": created})
	}
	return nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	_ = a.Cache.Close()
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
