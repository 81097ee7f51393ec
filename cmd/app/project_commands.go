package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/cmd/app/commands"
)

func getProjectCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-project",
			Usage: "Create a project and print its project secret",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Project name",
				},
				&cli.StringFlag{
					Name:    "provider-key",
					Aliases: []string{"k"},
					Sources: cli.EnvVars("KEYGUARD_PROVIDER_KEY"),
					Usage:   "Upstream provider API key (stored encrypted)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, closeContainer := openContainer()
				defer closeContainer()

				projectUseCase, err := container.ProjectUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateProject(
					ctx,
					projectUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("provider-key"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "set-provider-key",
			Usage: "Replace the upstream provider key of a project",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "project-id",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Project ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "provider-key",
					Aliases:  []string{"k"},
					Required: true,
					Sources:  cli.EnvVars("KEYGUARD_PROVIDER_KEY"),
					Usage:    "Upstream provider API key (stored encrypted)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, closeContainer := openContainer()
				defer closeContainer()

				projectUseCase, err := container.ProjectUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetProviderKey(
					ctx,
					projectUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("project-id"),
					cmd.String("provider-key"),
					cmd.String("format"),
				)
			},
		},
	}
}
