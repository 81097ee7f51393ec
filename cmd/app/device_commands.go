package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/cmd/app/commands"
)

func getDeviceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-enrollment-code",
			Usage: "Create a single-use enrollment code for a project",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "project-id",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Project ID (UUID)",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Value: 24 * time.Hour,
					Usage: "Code lifetime (0 for no expiry)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, closeContainer := openContainer()
				defer closeContainer()

				deviceUseCase, err := container.DeviceUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateEnrollmentCode(
					ctx,
					deviceUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("project-id"),
					cmd.Duration("ttl"),
					cmd.String("format"),
				)
			},
		},
		deviceTransitionCommand("approve-device", "Approve a pending device", commands.DeviceActionApprove),
		deviceTransitionCommand("suspend-device", "Suspend an active device", commands.DeviceActionSuspend),
		deviceTransitionCommand(
			"reactivate-device",
			"Reactivate a suspended device",
			commands.DeviceActionReactivate,
		),
		deviceTransitionCommand("revoke-device", "Permanently revoke a device", commands.DeviceActionRevoke),
	}
}

func deviceTransitionCommand(name, usage, action string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Aliases:  []string{"i"},
				Required: true,
				Usage:    "Device ID (UUID)",
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container, closeContainer := openContainer()
			defer closeContainer()

			deviceUseCase, err := container.DeviceUseCase()
			if err != nil {
				return err
			}

			return commands.RunDeviceTransition(
				ctx,
				deviceUseCase,
				container.Logger(),
				commands.DefaultIO().Writer,
				action,
				cmd.String("id"),
				cmd.String("format"),
			)
		},
	}
}
