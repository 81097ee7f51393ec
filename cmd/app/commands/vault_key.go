package commands

import (
	"context"
	"fmt"
	"io"

	vaultService "github.com/allisson/keyguard/internal/vault/service"
)

// RunCreateVaultKey generates a 32-byte vault key and prints it as VAULT_KEY. With a KMS key
// URI the key is wrapped by the KMS first and KMS_KEY_URI is printed alongside it.
//
// For local development use kmsKeyURI="base64key://<32-byte-base64-key>" (localsecrets). Never
// use localsecrets in production.
func RunCreateVaultKey(
	ctx context.Context,
	kms vaultService.KMSService,
	writer io.Writer,
	kmsKeyURI string,
) error {
	encodedKey, err := vaultService.GenerateVaultKey(ctx, kmsKeyURI, kms)
	if err != nil {
		return fmt.Errorf("failed to create vault key: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# Vault Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	_, _ = fmt.Fprintf(writer, "VAULT_KEY=\"%s\"\n", encodedKey)

	return nil
}
