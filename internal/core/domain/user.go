package domain

import "time"

// Role determines what a local user is authorized to do.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// UserStatus represents the lifecycle state of a local user record.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInvited   UserStatus = "invited"
	StatusSuspended UserStatus = "suspended"
	StatusDeleted   UserStatus = "deleted"
)

// validTransitions defines the status changes this gateway may apply.
// StatusDeleted has no entry: a soft-deleted record is final.
var validTransitions = map[UserStatus][]UserStatus{
	StatusActive:    {StatusSuspended, StatusDeleted},
	StatusInvited:   {StatusActive, StatusDeleted},
	StatusSuspended: {StatusActive, StatusDeleted},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// User is the local directory record. ExternalSubjectID joins it to the
// identity provider and never changes after creation.
type User struct {
	ID                string     `json:"id"`
	ExternalSubjectID string     `json:"keycloak_id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	DisplayName       *string    `json:"display_name"`
	Role              Role       `json:"role"`
	Status            UserStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	LastSeenAt        *time.Time `json:"last_seen_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.Status == StatusDeleted
}

// Subject is the identity provider's view of an authenticated principal.
type Subject struct {
	ID       string
	Username string
	Email    string
}
