package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	replayUseCase "github.com/allisson/keyguard/internal/replay/usecase"
)

// RunCleanNonces runs one nonce sweep. The server sweeps on NONCE_SWEEP_INTERVAL;
// this covers deployments that sweep out of band.
func RunCleanNonces(
	ctx context.Context,
	replayGuard replayUseCase.ReplayGuard,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	count, err := replayGuard.Sweep(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean nonces: %w", err)
	}
	logger.Info("nonce cleanup completed", slog.Int64("count", count), slog.Bool("dry_run", dryRun))

	return cleanupReport{Count: count, DryRun: dryRun, What: "expired nonce(s)"}.write(writer, format)
}
