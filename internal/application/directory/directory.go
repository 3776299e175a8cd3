// Package directory is the identity collaborator: lookup by email, group
// membership, enable/disable, and a free-form attribute bag per account. The
// workflow engine only consumes the Directory interface; the gorm-backed
// Service is the default implementation.
package directory

import (
	"context"

	"anticair-backend/internal/domain"
)

// Directory is the contract the workflow engine needs from the identity
// provider. Every method fails with domain.ErrAccountNotFound /
// domain.ErrGroupNotFound when the email or group does not resolve.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ListByGroup(ctx context.Context, groupName string) ([]domain.Account, error)
	GroupsOf(ctx context.Context, email string) ([]string, error)
	SetEnabled(ctx context.Context, email string, enabled bool) error
	IsEnabled(ctx context.Context, email string) (bool, error)
	GetAttribute(ctx context.Context, email, key string) (string, error)
	SetAttribute(ctx context.Context, email, key, value string) error
	JoinGroup(ctx context.Context, email, groupName string) error
	LeaveGroup(ctx context.Context, email, groupName string) error
}
