package handler

import (
	"time"

	"github.com/colink/gateway/internal/core/ports"
)

// ErrorResponse is the envelope of every gateway-originated 4xx/5xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// --- Request / Response types ---

type deleteUserRequest struct {
	ID string `param:"id" validate:"required,objectid"`
}

type userListItem struct {
	ID                string     `json:"id"`
	ExternalSubjectID string     `json:"keycloak_id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	DisplayName       *string    `json:"display_name"`
	Role              string     `json:"role"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	LastSeenAt        *time.Time `json:"last_seen_at"`
}

type usersListResponse struct {
	Users []userListItem `json:"users"`
	Total int            `json:"total"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type pendingSyncsResponse struct {
	Pending []ports.PendingSync `json:"pending"`
	Total   int                 `json:"total"`
}
