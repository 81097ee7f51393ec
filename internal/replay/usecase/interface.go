// Package usecase implements replay protection: nonce lookup, recording and expiry sweeps.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	replayDomain "github.com/allisson/keyguard/internal/replay/domain"
)

// NonceRepository defines persistence operations for nonce records.
// Implementations must support transaction-aware operations via context propagation.
type NonceRepository interface {
	// Create inserts the record in a single statement. A record for the same triple that expired
	// at or before nonce.CreatedAt is replaced; an unexpired one returns ErrReplayDetected.
	Create(ctx context.Context, nonce *replayDomain.Nonce) error

	// Exists reports whether an unexpired record for the triple exists at now.
	Exists(ctx context.Context, projectID uuid.UUID, keyID, value string, now time.Time) (bool, error)

	// DeleteExpired removes every record expired at or before now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountExpired counts records expired at or before now.
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}

// ReplayGuard defines replay protection operations.
type ReplayGuard interface {
	// Exists reports whether the nonce was already used and has not expired.
	Exists(ctx context.Context, projectID uuid.UUID, keyID, nonce string) (bool, error)

	// Record stores the nonce. A concurrent or earlier use returns ErrReplayDetected.
	Record(ctx context.Context, projectID uuid.UUID, keyID, nonce string) error

	// Sweep deletes expired records. With dryRun it only counts them.
	Sweep(ctx context.Context, dryRun bool) (int64, error)

	// Start runs Sweep on the configured interval until ctx is cancelled.
	Start(ctx context.Context) error
}
