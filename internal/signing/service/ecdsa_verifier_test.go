package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signingDomain "github.com/allisson/keyguard/internal/signing/domain"
	signingTesting "github.com/allisson/keyguard/internal/signing/testing"
)

func TestECDSAP256Verifier_Algorithm(t *testing.T) {
	assert.Equal(t, signingDomain.AlgorithmECDSAP256SHA256, NewECDSAP256Verifier().Algorithm())
}

func TestECDSAP256Verifier_Verify(t *testing.T) {
	verifier := NewECDSAP256Verifier()
	key := signingTesting.NewDeviceKey("key-1")
	payload := []byte("kg-v1|2026-10-19T12:00:00Z|POST|/v1/verify|hash|nonce|secret|key-1")

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, verifier.Verify(key.PublicKeyB64, key.Sign(payload), payload))
	})

	t.Run("payload byte mutation", func(t *testing.T) {
		sig := key.Sign(payload)
		for i := range payload {
			mutated := append([]byte{}, payload...)
			mutated[i] ^= 0x01
			assert.False(t, verifier.Verify(key.PublicKeyB64, sig, mutated), "byte %d", i)
		}
	})

	t.Run("signature byte mutation", func(t *testing.T) {
		raw := key.SignP1363(payload)
		for i := range raw {
			mutated := append([]byte{}, raw...)
			mutated[i] ^= 0x01
			sig := base64.StdEncoding.EncodeToString(mutated)
			assert.False(t, verifier.Verify(key.PublicKeyB64, sig, payload), "byte %d", i)
		}
	})

	t.Run("key byte mutation", func(t *testing.T) {
		sig := key.Sign(payload)
		der, err := base64.StdEncoding.DecodeString(key.PublicKeyB64)
		require.NoError(t, err)
		for i := range der {
			mutated := append([]byte{}, der...)
			mutated[i] ^= 0x01
			pub := base64.StdEncoding.EncodeToString(mutated)
			assert.False(t, verifier.Verify(pub, sig, payload), "byte %d", i)
		}
	})

	t.Run("other device key", func(t *testing.T) {
		other := signingTesting.NewDeviceKey("key-2")
		assert.False(t, verifier.Verify(other.PublicKeyB64, key.Sign(payload), payload))
	})

	t.Run("DER signature is rejected", func(t *testing.T) {
		der, err := P1363ToDER(key.SignP1363(payload))
		require.NoError(t, err)
		sig := base64.StdEncoding.EncodeToString(der)
		assert.False(t, verifier.Verify(key.PublicKeyB64, sig, payload))
	})

	t.Run("malformed inputs", func(t *testing.T) {
		sig := key.Sign(payload)
		assert.False(t, verifier.Verify("not base64!", sig, payload))
		assert.False(t, verifier.Verify(key.PublicKeyB64, "not base64!", payload))
		assert.False(t, verifier.Verify("", "", payload))
		assert.False(t, verifier.Verify(base64.StdEncoding.EncodeToString([]byte{0x30, 0x00}), sig, payload))
	})

	t.Run("wrong curve", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		require.NoError(t, err)
		pub := base64.StdEncoding.EncodeToString(der)
		assert.False(t, verifier.Verify(pub, key.Sign(payload), payload))
	})
}

func TestWrapPublicKeyPEM(t *testing.T) {
	key := signingTesting.NewDeviceKey("key-1")
	pemText := WrapPublicKeyPEM(key.PublicKeyB64)

	lines := strings.Split(strings.TrimSuffix(pemText, "\n"), "\n")
	assert.Equal(t, "-----BEGIN PUBLIC KEY-----", lines[0])
	assert.Equal(t, "-----END PUBLIC KEY-----", lines[len(lines)-1])
	for _, line := range lines[1 : len(lines)-1] {
		assert.LessOrEqual(t, len(line), 64)
	}
	assert.Equal(t, key.PublicKeyB64, strings.Join(lines[1:len(lines)-1], ""))
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	v, ok := r.Get(signingDomain.AlgorithmECDSAP256SHA256)
	assert.True(t, ok)
	assert.NotNil(t, v)

	_, ok = r.Get("ecdsa_p256_sha256")
	assert.False(t, ok)

	_, ok = r.Get("RSA_PSS")
	assert.False(t, ok)
}
