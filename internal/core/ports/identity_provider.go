package ports

import (
	"context"

	"github.com/colink/gateway/internal/core/domain"
)

// IdentityProvider is the gateway's view of the external identity authority.
type IdentityProvider interface {
	// UserInfo resolves a raw bearer token to the subject it was issued for.
	UserInfo(ctx context.Context, bearerToken string) (*domain.Subject, error)
	// DeleteUser removes the subject at the identity provider. It returns
	// domain.ErrSubjectGone when the subject does not exist there.
	DeleteUser(ctx context.Context, subjectID string) error
}
