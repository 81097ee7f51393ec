// Package mocks provides testify mocks for the verification pipeline.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	verificationDomain "github.com/allisson/keyguard/internal/verification/domain"
)

// MockPipeline is a mock implementation of Pipeline.
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Verify(
	ctx context.Context,
	input *verificationDomain.VerifyInput,
) *verificationDomain.Result {
	return m.Called(ctx, input).Get(0).(*verificationDomain.Result)
}
