package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/safewatch/internal/buildinfo"
	"github.com/dmitrijs2005/safewatch/internal/client/cli"
	"github.com/dmitrijs2005/safewatch/internal/client/config"
	"github.com/dmitrijs2005/safewatch/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	app := cli.NewApp(cfg, logger)
	app.Run(ctx)

}
