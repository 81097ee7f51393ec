package app

import (
	"context"
	"fmt"

	vaultService "github.com/allisson/keyguard/internal/vault/service"
)

// KMSService returns the KMS service used to unwrap the vault key.
func (c *Container) KMSService() vaultService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = vaultService.NewKMSService()
	})
	return c.kmsService
}

// VaultKey returns the 32-byte key protecting provider credentials, unwrapped through KMS
// when KMS_KEY_URI is set.
func (c *Container) VaultKey() ([]byte, error) {
	var err error
	c.vaultKeyInit.Do(func() {
		c.vaultKey, err = vaultService.LoadVaultKey(
			context.Background(),
			c.config.VaultKey,
			c.config.KMSKeyURI,
			c.KMSService(),
			c.Logger(),
		)
		if err != nil {
			c.initErrors["vaultKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultKey"]; exists {
		return nil, storedErr
	}
	return c.vaultKey, nil
}

// Vault returns the credential vault.
func (c *Container) Vault() (vaultService.Vault, error) {
	var err error
	c.vaultInit.Do(func() {
		c.vault, err = c.initVault()
		if err != nil {
			c.initErrors["vault"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vault"]; exists {
		return nil, storedErr
	}
	return c.vault, nil
}

func (c *Container) initVault() (vaultService.Vault, error) {
	key, err := c.VaultKey()
	if err != nil {
		return nil, fmt.Errorf("failed to load vault key: %w", err)
	}
	return vaultService.NewVault(key)
}
