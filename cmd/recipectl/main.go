package main

import (
	"context"
	"fmt"
	"os"

	"recipeapp/internal/app"
	"recipeapp/internal/config"
	"recipeapp/internal/logger"
)

func main() {
	open := func(ctx context.Context) (*app.App, error) {
		cfg := config.Load()
		return app.New(ctx, cfg, logger.New(cfg.LogLevel, cfg.AppEnv, os.Stderr))
	}

	if err := newRootCmd(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
