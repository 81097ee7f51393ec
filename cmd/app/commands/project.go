package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	projectDomain "github.com/allisson/keyguard/internal/project/domain"
	projectUseCase "github.com/allisson/keyguard/internal/project/usecase"
)

// RunCreateProject creates a project and prints its id and secret. The secret is shown only
// once and must be distributed to the project's client builds.
func RunCreateProject(
	ctx context.Context,
	projectUseCase projectUseCase.ProjectUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	providerKey string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("project name is required")
	}

	output, err := projectUseCase.Create(ctx, &projectDomain.CreateProjectInput{
		Name:        name,
		ProviderKey: providerKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	logger.Info("project created",
		slog.String("project_id", output.ID.String()),
		slog.Bool("provider_key_set", providerKey != ""),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"project_id":     output.ID.String(),
			"project_secret": output.PlainSecret,
		})
	}

	_, _ = fmt.Fprintln(writer, "Project created successfully!")
	_, _ = fmt.Fprintf(writer, "Project ID:     %s\n", output.ID)
	_, _ = fmt.Fprintf(writer, "Project Secret: %s\n", output.PlainSecret)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "WARNING: Save the project secret now. It cannot be retrieved again.")
	return nil
}

// RunSetProviderKey encrypts and stores the upstream provider key of a project.
func RunSetProviderKey(
	ctx context.Context,
	projectUseCase projectUseCase.ProjectUseCase,
	logger *slog.Logger,
	writer io.Writer,
	projectIDStr string,
	providerKey string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	projectID, err := parseID("project id", projectIDStr)
	if err != nil {
		return err
	}
	if providerKey == "" {
		return fmt.Errorf("provider key is required")
	}

	if err := projectUseCase.SetProviderKey(ctx, projectID, providerKey); err != nil {
		return fmt.Errorf("failed to set provider key: %w", err)
	}

	logger.Info("provider key updated", slog.String("project_id", projectID.String()))

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"project_id":       projectID.String(),
			"provider_key_set": true,
		})
	}

	_, _ = fmt.Fprintf(writer, "Provider key updated for project %s\n", projectID)
	return nil
}
