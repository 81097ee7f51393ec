package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/keyguard/internal/errors"
	replayDomain "github.com/allisson/keyguard/internal/replay/domain"
)

// Config holds replay guard configuration.
type Config struct {
	NonceTTL      time.Duration
	SweepInterval time.Duration
}

type replayGuard struct {
	config    Config
	nonceRepo NonceRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewReplayGuard creates a new ReplayGuard. A zero NonceTTL falls back to DefaultNonceTTL.
func NewReplayGuard(
	config Config,
	nonceRepo NonceRepository,
	logger *slog.Logger,
) ReplayGuard {
	if config.NonceTTL <= 0 {
		config.NonceTTL = replayDomain.DefaultNonceTTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = time.Minute
	}
	return &replayGuard{
		config:    config,
		nonceRepo: nonceRepo,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Exists reports whether an unexpired record for the triple exists.
func (r *replayGuard) Exists(ctx context.Context, projectID uuid.UUID, keyID, nonce string) (bool, error) {
	exists, err := r.nonceRepo.Exists(ctx, projectID, keyID, nonce, r.now())
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check nonce")
	}
	return exists, nil
}

// Record stores the nonce with a single upsert. A lapsed record for the same triple is
// reused; the primary key on the triple decides concurrent races.
func (r *replayGuard) Record(ctx context.Context, projectID uuid.UUID, keyID, nonce string) error {
	record := replayDomain.NewNonce(projectID, keyID, nonce, r.now(), r.config.NonceTTL)
	return r.nonceRepo.Create(ctx, record)
}

// Sweep deletes expired records, or only counts them when dryRun is set.
func (r *replayGuard) Sweep(ctx context.Context, dryRun bool) (int64, error) {
	now := r.now()
	if dryRun {
		count, err := r.nonceRepo.CountExpired(ctx, now)
		if err != nil {
			return 0, apperrors.Wrap(err, "failed to count expired nonces")
		}
		return count, nil
	}

	count, err := r.nonceRepo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired nonces")
	}
	return count, nil
}

// Start runs the sweeper loop until ctx is cancelled.
func (r *replayGuard) Start(ctx context.Context) error {
	if r.logger != nil {
		r.logger.Info("starting nonce sweeper", slog.Duration("interval", r.config.SweepInterval))
	}

	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("stopping nonce sweeper")
			}
			return ctx.Err()
		case <-ticker.C:
			count, err := r.Sweep(ctx, false)
			if err != nil {
				if r.logger != nil {
					r.logger.Error("failed to sweep nonces", slog.Any("error", err))
				}
				continue
			}
			if count > 0 && r.logger != nil {
				r.logger.Debug("swept expired nonces", slog.Int64("count", count))
			}
		}
	}
}
