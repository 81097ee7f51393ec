package domain

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
)

func TestValidatePublicKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.Len(t, spki, 91)

	notSequence := append([]byte{0x04}, spki[1:]...)

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"Valid_P256", base64.StdEncoding.EncodeToString(spki), ""},
		{"Valid_MinLength", base64.StdEncoding.EncodeToString(append([]byte{0x30}, make([]byte, 58)...)), ""},
		{"Invalid_Base64", "not*base64", "not valid base64"},
		{"Invalid_Empty", "", "outside"},
		{"Invalid_TooShort", base64.StdEncoding.EncodeToString(append([]byte{0x30}, make([]byte, 57)...)), "outside"},
		{"Invalid_TooLong", base64.StdEncoding.EncodeToString(append([]byte{0x30}, make([]byte, 200)...)), "outside"},
		{"Invalid_NotSequence", base64.StdEncoding.EncodeToString(notSequence), "DER SEQUENCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublicKey(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidPublicKey)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}
