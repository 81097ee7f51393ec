// Package http provides project authentication middleware for gin routes.
package http

import (
	"context"

	projectDomain "github.com/allisson/keyguard/internal/project/domain"
)

type projectKey struct{}

// WithProject stores the authenticated project in the context.
func WithProject(ctx context.Context, project *projectDomain.Project) context.Context {
	return context.WithValue(ctx, projectKey{}, project)
}

// GetProject retrieves the authenticated project from the context.
func GetProject(ctx context.Context) (*projectDomain.Project, bool) {
	project, ok := ctx.Value(projectKey{}).(*projectDomain.Project)
	return project, ok
}
