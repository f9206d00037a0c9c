package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"recipeapp/docs"
	"recipeapp/internal/app"
	"recipeapp/internal/config"
	"recipeapp/internal/handler"
	"recipeapp/internal/logger"
	"recipeapp/internal/router"
	"recipeapp/internal/view"
)

// @title Recipe API
// @version 1.0
// @description Recipe management: server-rendered pages plus JSON endpoints for stats, search, export and import.
// @BasePath /
// @schemes http
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.AppEnv, os.Stdout)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", logger.Fields{"error": err.Error()})
	}
	defer a.Close()

	if err := a.Bootstrap(ctx); err != nil {
		log.Fatal("bootstrap failed", logger.Fields{"error": err.Error()})
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		log.Fatal("template init failed", logger.Fields{"error": err.Error()})
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(middleware.RequestID())

	// Initialize handlers
	router.Register(e, cfg, log, a.Metrics, a.Auth, router.Handlers{
		Recipe:  handler.NewRecipeHandler(a.Recipes, log),
		API:     handler.NewAPIHandler(a.Recipes, log),
		Auth:    handler.NewAuthHandler(a.Auth, a.Users, cfg.SessionCookie, a.JWT.TTL(), log),
		User:    handler.NewUserHandler(a.Users),
		Uploads: handler.NewUploadHandler(a.Images),
	})

	swaggerURL := swaggerBaseURL(cfg.SwaggerHost, cfg.ServerPort)
	docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(swaggerURL, "https://"), "http://")
	log.Info("swagger documentation available", logger.Fields{"url": swaggerURL + "/swagger/index.html"})

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal("server start failed", logger.Fields{"error": err.Error()})
	}
}

// swaggerBaseURL accepts SWAGGER_HOST with or without a scheme.
func swaggerBaseURL(host, port string) string {
	switch {
	case host == "":
		return "http://localhost:" + port
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		return strings.TrimSuffix(host, "/")
	default:
		return "http://" + strings.TrimSuffix(host, "/")
	}
}
