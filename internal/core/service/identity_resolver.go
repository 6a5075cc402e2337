package service

import (
	"context"
	"fmt"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// IdentityResolver maps an identity-provider subject to its local record.
// The local directory decides authorization; a soft-deleted record resolves
// to nothing.
type IdentityResolver struct {
	repo ports.UserRepository
}

func NewIdentityResolver(repo ports.UserRepository) *IdentityResolver {
	return &IdentityResolver{repo: repo}
}

func (r *IdentityResolver) Resolve(ctx context.Context, subject *domain.Subject) (*domain.User, error) {
	user, err := r.repo.FindByExternalSubjectID(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve subject %s: %w", subject.ID, err)
	}
	if user.IsDeleted() {
		return nil, fmt.Errorf("resolve subject %s: %w", subject.ID, domain.ErrUserNotFound)
	}
	return user, nil
}
