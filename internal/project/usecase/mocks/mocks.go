// Package mocks provides testify mocks for project interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	projectDomain "github.com/allisson/keyguard/internal/project/domain"
)

// MockProjectUseCase is a mock implementation of ProjectUseCase.
type MockProjectUseCase struct {
	mock.Mock
}

func (m *MockProjectUseCase) Create(
	ctx context.Context,
	input *projectDomain.CreateProjectInput,
) (*projectDomain.CreateProjectOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectDomain.CreateProjectOutput), args.Error(1)
}

func (m *MockProjectUseCase) Get(ctx context.Context, projectID uuid.UUID) (*projectDomain.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectDomain.Project), args.Error(1)
}

func (m *MockProjectUseCase) Authenticate(ctx context.Context, plainSecret string) (*projectDomain.Project, error) {
	args := m.Called(ctx, plainSecret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projectDomain.Project), args.Error(1)
}

func (m *MockProjectUseCase) SetProviderKey(ctx context.Context, projectID uuid.UUID, providerKey string) error {
	return m.Called(ctx, projectID, providerKey).Error(0)
}

func (m *MockProjectUseCase) ProviderKey(ctx context.Context, project *projectDomain.Project) (string, error) {
	args := m.Called(ctx, project)
	return args.String(0), args.Error(1)
}
