package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type upstreamError struct{ status int }

func (e upstreamError) Error() string { return fmt.Sprintf("upstream returned %d", e.status) }

func TestKind(t *testing.T) {
	deviceRevoked := Wrap(ErrConflict, "device already revoked")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"sentinel", ErrNotFound, ErrNotFound},
		{"wrapped once", deviceRevoked, ErrConflict},
		{"wrapped twice", fmt.Errorf("revoke: %w", deviceRevoked), ErrConflict},
		{"joined", errors.Join(errors.New("io"), ErrUnavailable), ErrUnavailable},
		{"plain error", errors.New("connection refused"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrInvalidInput, "invalid enrollment code")
	assert.EqualError(t, wrapped, "invalid enrollment code: invalid input")
	assert.True(t, Is(wrapped, ErrInvalidInput))

	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestAs(t *testing.T) {
	err := Wrap(upstreamError{status: 503}, "forward")

	var target upstreamError
	assert.True(t, As(err, &target))
	assert.Equal(t, 503, target.status)
	assert.False(t, Is(err, ErrNotFound))
}
