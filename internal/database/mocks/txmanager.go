// Package mocks provides mock implementations of database interfaces for testing.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockTxManager is a mock TxManager. By default WithTx runs fn with the given context.
type MockTxManager struct {
	mock.Mock
	passthrough bool
}

// NewMockTxManager returns a MockTxManager that runs fn inline. Call Expect to record
// expectations instead.
func NewMockTxManager(t *testing.T) *MockTxManager {
	m := &MockTxManager{passthrough: true}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Expect switches the mock to expectation mode and registers a WithTx call.
func (m *MockTxManager) Expect() *mock.Call {
	m.passthrough = false
	return m.On("WithTx", mock.Anything, mock.Anything)
}

// WithTx runs fn, or returns the configured error in expectation mode.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.passthrough {
		return fn(ctx)
	}
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
