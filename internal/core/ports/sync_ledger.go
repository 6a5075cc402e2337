package ports

import (
	"context"
	"time"
)

// PendingSync describes a user that was deleted locally but not yet at the
// identity provider.
type PendingSync struct {
	SubjectID string    `json:"keycloak_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FailedAt  time.Time `json:"failed_at"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
}

// SyncLedger tracks identity-provider deletions that still need to happen.
type SyncLedger interface {
	Record(ctx context.Context, entry PendingSync) error
	Resolve(ctx context.Context, subjectID string) error
	List(ctx context.Context) ([]PendingSync, error)
}
