// Package commands contains CLI command implementations for KeyGuard.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeMigrate closes the migration instance and logs any errors.
func closeMigrate(migrate *migrate.Migrate, logger *slog.Logger) {
	sourceError, databaseError := migrate.Close()
	if sourceError != nil || databaseError != nil {
		logger.Error(
			"failed to close the migrate",
			slog.Any("source_error", sourceError),
			slog.Any("database_error", databaseError),
		)
	}
}

// validateFormat accepts "text" and "json".
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// parseID parses a UUID flag value, naming the flag in the error.
func parseID(flag, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", flag, err)
	}
	return id, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(writer io.Writer, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}

// cleanupReport is the output of the clean-* commands.
type cleanupReport struct {
	Count  int64  `json:"count"`
	Days   *int   `json:"days,omitempty"`
	DryRun bool   `json:"dry_run"`
	What   string `json:"-"`
}

func (r cleanupReport) write(writer io.Writer, format string) error {
	if format == "json" {
		return writeJSON(writer, r)
	}

	scope := ""
	if r.Days != nil {
		scope = fmt.Sprintf(" older than %d day(s)", *r.Days)
	}
	if r.DryRun {
		_, _ = fmt.Fprintf(writer, "Dry-run mode: Would delete %d %s%s\n", r.Count, r.What, scope)
		return nil
	}
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d %s%s\n", r.Count, r.What, scope)
	return nil
}
