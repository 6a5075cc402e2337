package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// TokenValidator resolves bearer tokens to subjects through the identity
// provider. It holds no state and performs one provider call per token.
type TokenValidator struct {
	idp    ports.IdentityProvider
	parser *jwt.Parser
}

func NewTokenValidator(idp ports.IdentityProvider) *TokenValidator {
	return &TokenValidator{idp: idp, parser: jwt.NewParser()}
}

// Validate expects the raw token, scheme already stripped. Every failure is
// reported as domain.ErrAuthentication.
func (v *TokenValidator) Validate(ctx context.Context, bearerToken string) (*domain.Subject, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, fmt.Errorf("validate token: empty token: %w", domain.ErrAuthentication)
	}

	subject, err := v.idp.UserInfo(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("validate token: %v: %w", err, domain.ErrAuthentication)
	}
	if subject == nil || subject.ID == "" {
		return nil, fmt.Errorf("validate token: userinfo without subject: %w", domain.ErrAuthentication)
	}

	// The signature was already checked by the provider; the claims are only
	// read to make sure the provider answered for this token.
	if sub, ok := v.unverifiedSubject(bearerToken); ok && sub != subject.ID {
		return nil, fmt.Errorf("validate token: subject mismatch: %w", domain.ErrAuthentication)
	}

	return subject, nil
}

func (v *TokenValidator) unverifiedSubject(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
