package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/internal/app"
	"github.com/allisson/keyguard/internal/config"
)

const containerCloseTimeout = 10 * time.Second

func getCommands(version string) []*cli.Command {
	cmds := getSystemCommands(version)
	cmds = append(cmds, getProjectCommands()...)
	cmds = append(cmds, getDeviceCommands()...)
	return cmds
}

// openContainer builds a container for a one-shot command. The returned func
// releases it and logs, rather than returns, close errors.
func openContainer() (*app.Container, func()) {
	container := app.NewContainer(config.Load())
	return container, func() {
		ctx, cancel := context.WithTimeout(context.Background(), containerCloseTimeout)
		defer cancel()
		if err := container.Shutdown(ctx); err != nil {
			container.Logger().Error("failed to close container", slog.Any("error", err))
		}
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
