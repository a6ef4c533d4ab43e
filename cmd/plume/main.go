package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	plume "github.com/plume-app/plume"
)

func main() {
	ctx := context.Background()

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "failed to load .env file", "error", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: plume.GetLogLevelFromEnv(),
	})))

	app, err := plume.NewApp(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create app", "error", err)
		os.Exit(1)
	}

	err = app.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run app", "error", err)
		os.Exit(1)
	}
}
