// Package mocks provides testify mocks for the proxy interfaces.
package mocks

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	proxyDomain "github.com/allisson/keyguard/internal/proxy/domain"
)

// MockForwarder is a mock implementation of Forwarder.
type MockForwarder struct {
	mock.Mock
}

func (m *MockForwarder) Forward(
	ctx context.Context,
	w http.ResponseWriter,
	req *proxyDomain.ForwardRequest,
) error {
	return m.Called(ctx, w, req).Error(0)
}
