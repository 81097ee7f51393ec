// Package domain defines projects: the tenants devices enroll under.
//
// A project holds the hashed project secret clients present in X-KG-Project-Secret and the
// encrypted upstream provider key injected on proxied calls.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusInactive ProjectStatus = "INACTIVE"
	ProjectStatusRevoked  ProjectStatus = "REVOKED"
)

// Project is a tenant owning devices and an upstream provider credential.
type Project struct {
	ID           uuid.UUID
	Name         string
	SecretPrefix string // Public lookup component of the project secret
	SecretHash   string //nolint:gosec // Argon2id hash, never the plaintext
	Status       ProjectStatus
	// EncryptedProviderKey is a credential vault blob, nil when no key is configured.
	EncryptedProviderKey *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether clients of the project may authenticate.
func (p *Project) IsActive() bool {
	return p.Status == ProjectStatusActive
}

// HasProviderKey reports whether an encrypted provider key is configured.
func (p *Project) HasProviderKey() bool {
	return p.EncryptedProviderKey != nil && *p.EncryptedProviderKey != ""
}

// CreateProjectInput contains the parameters for creating a project.
type CreateProjectInput struct {
	Name        string
	ProviderKey string // Optional plaintext provider key, encrypted before storage
}

// CreateProjectOutput is returned once on creation.
// SECURITY: PlainSecret is never retrievable again.
type CreateProjectOutput struct {
	ID          uuid.UUID
	PlainSecret string
}
