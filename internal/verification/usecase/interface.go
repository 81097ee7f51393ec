// Package usecase implements the verification pipeline for signed device requests.
package usecase

import (
	"context"

	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
)

// Pipeline verifies signed requests.
type Pipeline interface {
	// Verify runs every gate in order and stops at the first rejection. It never returns
	// an error: store failures and panics surface as "verification failed".
	Verify(ctx context.Context, input *verificationDomain.VerifyInput) *verificationDomain.Result
}
