package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dkurilov/boardpass/internal/buildinfo"
	"github.com/dkurilov/boardpass/internal/client/cli"
	"github.com/dkurilov/boardpass/internal/client/config"
	"github.com/dkurilov/boardpass/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stderr)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	root := cli.NewRootCmd(app)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
