// Package domain defines replay-protection records for signed requests.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/keyguard/internal/errors"
)

// DefaultNonceTTL is how long a nonce is remembered after first use.
const DefaultNonceTTL = 120 * time.Second

// ErrReplayDetected indicates the (project, key id, nonce) triple was already used.
var ErrReplayDetected = errors.Wrap(errors.ErrConflict, "replay detected: nonce already used")

// Nonce records one use of a nonce by a device key.
type Nonce struct {
	ProjectID uuid.UUID
	KeyID     string
	Value     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewNonce creates a nonce record used at now and remembered for ttl.
func NewNonce(projectID uuid.UUID, keyID, value string, now time.Time, ttl time.Duration) *Nonce {
	return &Nonce{
		ProjectID: projectID,
		KeyID:     keyID,
		Value:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsExpired reports whether the record no longer blocks reuse at now.
func (n *Nonce) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}
