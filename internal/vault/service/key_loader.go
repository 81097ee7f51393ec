package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
)

// LoadVaultKey resolves the 32-byte vault key.
//
// Without a KMS URI, vaultKey is the base64 key itself. With a KMS URI, vaultKey is the
// base64 ciphertext produced by the keeper and is unwrapped at startup. The key is never logged.
func LoadVaultKey(
	ctx context.Context,
	vaultKey string,
	kmsKeyURI string,
	kms KMSService,
	logger *slog.Logger,
) ([]byte, error) {
	if vaultKey == "" {
		return nil, vaultDomain.ErrVaultKeyNotSet
	}

	raw, err := base64.StdEncoding.DecodeString(vaultKey)
	if err != nil {
		return nil, vaultDomain.ErrInvalidVaultKeyBase64
	}

	if kmsKeyURI != "" {
		keeper, err := kms.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil && logger != nil {
				logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()

		unwrapped, err := keeper.Decrypt(ctx, raw)
		vaultDomain.Zero(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap vault key: %w", err)
		}
		raw = unwrapped

		if logger != nil {
			logger.Info("vault key unwrapped with KMS")
		}
	}

	if len(raw) != 32 {
		vaultDomain.Zero(raw)
		return nil, fmt.Errorf("%w: got %d bytes", vaultDomain.ErrInvalidKeySize, len(raw))
	}

	return raw, nil
}

// GenerateVaultKey returns a new random 32-byte key, base64-encoded. When kmsKeyURI is
// set the key is wrapped by the keeper and the wrapped form is returned instead.
func GenerateVaultKey(ctx context.Context, kmsKeyURI string, kms KMSService) (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate vault key: %w", err)
	}
	defer vaultDomain.Zero(key)

	if kmsKeyURI == "" {
		return base64.StdEncoding.EncodeToString(key), nil
	}

	keeper, err := kms.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return "", err
	}
	defer func() { _ = keeper.Close() }()

	wrapped, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to wrap vault key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}
