package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	vaultDomain "github.com/allisson/keyguard/internal/vault/domain"
)

// KMSSchemes are the KMS_KEY_URI schemes KeyGuard can wrap the vault key with.
var KMSSchemes = []string{"awskms", "azurekeyvault", "base64key", "gcpkms", "hashivault"}

// KMSService opens the keeper that wraps the vault key.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (vaultDomain.KMSKeeper, error)
}

type cloudKMSService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &cloudKMSService{}
}

// OpenKeeper validates the URI scheme before handing it to the gocloud URL mux,
// so a typo in KMS_KEY_URI fails with the list of accepted schemes.
func (k *cloudKMSService) OpenKeeper(ctx context.Context, keyURI string) (vaultDomain.KMSKeeper, error) {
	u, err := url.Parse(keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vaultDomain.ErrInvalidKMSKeyURI, err)
	}
	if !slices.Contains(KMSSchemes, u.Scheme) {
		return nil, fmt.Errorf("%w: scheme %q not in %v", vaultDomain.ErrInvalidKMSKeyURI, u.Scheme, KMSSchemes)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
