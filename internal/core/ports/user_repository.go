package ports

import (
	"context"

	"github.com/colink/gateway/internal/core/domain"
)

// UserRepository defines persistence operations for the local user directory.
type UserRepository interface {
	// FindByID returns the record with the given id whatever its status.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByExternalSubjectID returns the record joined to an IdP subject.
	FindByExternalSubjectID(ctx context.Context, subjectID string) (*domain.User, error)
	// ListActive returns every non-deleted user, most recently created first.
	ListActive(ctx context.Context) ([]*domain.User, error)
	// MarkDeleted soft-deletes a single record. It returns ErrUserNotFound
	// when the record is missing or already deleted.
	MarkDeleted(ctx context.Context, id string) error
}
