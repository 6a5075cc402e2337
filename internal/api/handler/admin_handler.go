package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// AdminHandler handles the admin user-management API. Every route is mounted
// behind the AdminOnly middleware.
type AdminHandler struct {
	directory ports.DirectoryService
	log       zerolog.Logger
}

func NewAdminHandler(directory ports.DirectoryService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{directory: directory, log: log}
}

// ListUsers handles GET /admin/users.
//
// @Summary      List all non-deleted users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	admin, err := adminFromContext(c)
	if err != nil {
		return err
	}

	users, err := h.directory.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	h.log.Info().Str("admin", admin.Username).Int("count", len(users)).Msg("admin requested user list")
	return c.JSON(http.StatusOK, toUsersListResponse(users))
}

// DeleteUser handles DELETE /admin/users/:id.
//
// @Summary      Soft-delete a user and remove their identity-provider account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Local user id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	admin, err := adminFromContext(c)
	if err != nil {
		return err
	}

	var req deleteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	// Self-deletion is checked before shape validation so it is always a 400.
	if req.ID == admin.ID {
		return domain.ErrSelfDelete
	}
	if err := c.Validate(&req); err != nil {
		// No record can carry a malformed id.
		return domain.ErrUserNotFound
	}

	deleted, err := h.directory.DeleteUser(c.Request().Context(), admin.ID, req.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s deleted successfully", deleted.Username),
	})
}

// PendingSyncs handles GET /admin/sync/pending.
//
// @Summary      List deleted users still present at the identity provider
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  pendingSyncsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/sync/pending [get]
func (h *AdminHandler) PendingSyncs(c echo.Context) error {
	if _, err := adminFromContext(c); err != nil {
		return err
	}

	pending, err := h.directory.PendingSyncs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pendingSyncsResponse{Pending: pending, Total: len(pending)})
}
