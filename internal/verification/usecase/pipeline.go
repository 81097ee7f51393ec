package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	deviceDomain "github.com/allisson/keyguard/internal/device/domain"
	deviceUseCase "github.com/allisson/keyguard/internal/device/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	replayDomain "github.com/allisson/keyguard/internal/replay/domain"
	replayUseCase "github.com/allisson/keyguard/internal/replay/usecase"
	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
	signingService "github.com/allisson/keyguard/internal/signing/service"
	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
)

// DefaultWindow is the maximum accepted distance between the signed timestamp and the server clock.
const DefaultWindow = 120 * time.Second

// Config holds pipeline configuration.
type Config struct {
	Window time.Duration
}

type pipeline struct {
	config        Config
	registry      *signingService.Registry
	deviceUseCase deviceUseCase.DeviceUseCase
	replayGuard   replayUseCase.ReplayGuard
	logger        *slog.Logger
	now           func() time.Time
}

// NewPipeline creates a verification Pipeline. A zero Window falls back to DefaultWindow.
func NewPipeline(
	config Config,
	registry *signingService.Registry,
	deviceUseCase deviceUseCase.DeviceUseCase,
	replayGuard replayUseCase.ReplayGuard,
	logger *slog.Logger,
) Pipeline {
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	return &pipeline{
		config:        config,
		registry:      registry,
		deviceUseCase: deviceUseCase,
		replayGuard:   replayGuard,
		logger:        logger,
		now:           time.Now,
	}
}

// Verify checks, in order: algorithm, timestamp window, device status, replay, body hash,
// signature. On success the nonce is recorded and the device last-seen time updated.
func (p *pipeline) Verify(
	ctx context.Context,
	input *verificationDomain.VerifyInput,
) (result *verificationDomain.Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("verification panicked", slog.Any("panic", r))
			result = verificationDomain.Reject(verificationDomain.ErrMsgVerificationFailed)
		}
	}()

	verifier, ok := p.registry.Get(input.Algorithm)
	if !ok {
		return verificationDomain.Reject(verificationDomain.ErrMsgUnsupportedAlgorithm)
	}

	now := p.now()
	if msg := p.checkTimestamp(input.Timestamp, now); msg != "" {
		return verificationDomain.Reject(msg)
	}

	device, err := p.deviceUseCase.GetByKeyID(ctx, input.ProjectID, input.KeyID)
	if err != nil {
		if apperrors.Is(err, deviceDomain.ErrDeviceNotFound) {
			return verificationDomain.Reject(verificationDomain.ErrMsgDeviceNotFound)
		}
		return p.fail("device lookup failed", err)
	}
	if !device.IsActive() {
		return verificationDomain.Reject(fmt.Sprintf("%s: %s", verificationDomain.ErrMsgDeviceNotActive, device.Status))
	}

	used, err := p.replayGuard.Exists(ctx, input.ProjectID, input.KeyID, input.Nonce)
	if err != nil {
		return p.fail("nonce lookup failed", err)
	}
	if used {
		return verificationDomain.Reject(verificationDomain.ErrMsgReplayDetected)
	}

	// The declared hash is part of the signed payload, so it must match the lowercase hex exactly.
	if signingDomain.HashBody(input.Body) != input.BodyHash {
		return verificationDomain.Reject(verificationDomain.ErrMsgBodyHashMismatch)
	}

	payload := signingDomain.BuildCanonicalPayload(signingDomain.CanonicalInput{
		Timestamp:     input.Timestamp,
		Method:        input.Method,
		PathWithQuery: input.PathWithQuery,
		BodyHash:      input.BodyHash,
		Nonce:         input.Nonce,
		ProjectSecret: input.ProjectSecret,
		KeyID:         input.KeyID,
	})
	if !verifier.Verify(device.PublicKey, input.Signature, []byte(payload)) {
		return verificationDomain.Reject(verificationDomain.ErrMsgInvalidSignature)
	}

	if err := p.replayGuard.Record(ctx, input.ProjectID, input.KeyID, input.Nonce); err != nil {
		if apperrors.Is(err, replayDomain.ErrReplayDetected) {
			return verificationDomain.Reject(verificationDomain.ErrMsgReplayDetected)
		}
		return p.fail("nonce record failed", err)
	}

	if err := p.deviceUseCase.TouchLastSeen(ctx, device.ID, now.UTC()); err != nil {
		p.logger.Warn("failed to update device last seen",
			slog.String("device_id", device.ID.String()),
			slog.Any("error", err),
		)
	}

	return verificationDomain.Accept(device.ID, device.KeyID)
}

// checkTimestamp returns a rejection message, or "" when ts is inside the window.
// The distance is compared at millisecond precision and the boundary itself is accepted.
func (p *pipeline) checkTimestamp(ts string, now time.Time) string {
	signedAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return verificationDomain.ErrMsgInvalidTimestamp
	}

	skew := now.Sub(signedAt).Abs().Truncate(time.Millisecond)
	if skew > p.config.Window {
		return verificationDomain.ErrMsgTimestampOutOfWindow
	}
	return ""
}

func (p *pipeline) fail(msg string, err error) *verificationDomain.Result {
	p.logger.Error(msg, slog.Any("error", err))
	return verificationDomain.Reject(verificationDomain.ErrMsgVerificationFailed)
}
