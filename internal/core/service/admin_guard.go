package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
)

// AdminGuard composes token validation, identity resolution and the role
// check. Failures surface in that order: an invalid token is reported before
// an unknown user, and an unknown user before a missing privilege.
type AdminGuard struct {
	validator *TokenValidator
	resolver  *IdentityResolver
	log       zerolog.Logger
}

func NewAdminGuard(validator *TokenValidator, resolver *IdentityResolver, log zerolog.Logger) *AdminGuard {
	return &AdminGuard{validator: validator, resolver: resolver, log: log}
}

func (g *AdminGuard) AuthorizeAdmin(ctx context.Context, bearerToken string) (*domain.User, error) {
	subject, err := g.validator.Validate(ctx, bearerToken)
	if err != nil {
		g.log.Debug().Err(err).Msg("admin token rejected")
		return nil, err
	}

	user, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			g.log.Info().Str("subject", subject.ID).Msg("admin token for unknown local user")
		}
		return nil, err
	}

	if !user.IsAdmin() {
		g.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("admin access denied")
		return nil, domain.ErrForbidden
	}

	return user, nil
}
