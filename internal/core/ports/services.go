package ports

import (
	"context"

	"github.com/colink/gateway/internal/core/domain"
)

// AdminGuard authorizes callers of the admin API.
type AdminGuard interface {
	AuthorizeAdmin(ctx context.Context, bearerToken string) (*domain.User, error)
}

// DirectoryService implements the admin user-management operations.
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, requesterID, targetID string) (*domain.User, error)
	PendingSyncs(ctx context.Context) ([]PendingSync, error)
}
