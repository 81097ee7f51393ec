// Package main provides the entry point for the KeyGuard gateway and its management commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// Build-time version information (injected via ldflags during build).
var (
	version   = "v0.1.0"
	buildDate = "unknown"
	commitSHA = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:     "keyguard",
		Usage:    "Device-bound request signing gateway for LLM provider credentials",
		Version:  version,
		Commands: getCommands(version),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error",
			slog.Any("error", err),
			slog.String("version", version),
			slog.String("build_date", buildDate),
			slog.String("commit_sha", commitSHA),
		)
		os.Exit(1)
	}
}
