package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/colink/gateway/internal/api/handler"
	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/metrics"
)

// AdminOnly extracts the bearer token, runs it through the admin guard and
// injects the resolved admin into the context. A missing or malformed
// Authorization header is rejected without contacting the identity provider.
func AdminOnly(guard ports.AdminGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				metrics.AdminAuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			admin, err := guard.AuthorizeAdmin(c.Request().Context(), token)
			if err != nil {
				if reason := rejectionReason(err); reason != "" {
					metrics.AdminAuthRejectionsTotal.WithLabelValues(reason).Inc()
				}
				return err
			}

			c.Set(handler.AdminUserKey, admin)
			return next(c)
		}
	}
}

// bearerToken strips the scheme from an Authorization header value.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return "authentication"
	case errors.Is(err, domain.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, domain.ErrForbidden):
		return "not_admin"
	}
	return ""
}
