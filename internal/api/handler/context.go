package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colink/gateway/internal/core/domain"
)

// AdminUserKey is the echo context key holding the authorized *domain.User.
// The AdminOnly middleware sets it; admin handlers read it.
const AdminUserKey = "admin_user"

// adminFromContext returns the admin injected by the AdminOnly middleware.
// A missing value means the route was mounted without the guard; fail closed.
func adminFromContext(c echo.Context) (*domain.User, error) {
	admin, _ := c.Get(AdminUserKey).(*domain.User)
	if admin == nil || !admin.IsAdmin() {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return admin, nil
}
