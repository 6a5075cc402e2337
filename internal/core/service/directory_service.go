package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/metrics"
)

type directoryService struct {
	repo   ports.UserRepository
	idp    ports.IdentityProvider
	ledger ports.SyncLedger
	log    zerolog.Logger
}

// NewDirectoryService returns a DirectoryService implementation. ledger may be
// nil, in which case failed identity-provider deletions are only logged.
func NewDirectoryService(
	repo ports.UserRepository,
	idp ports.IdentityProvider,
	ledger ports.SyncLedger,
	log zerolog.Logger,
) ports.DirectoryService {
	return &directoryService{
		repo:   repo,
		idp:    idp,
		ledger: ledger,
		log:    log,
	}
}

// ListUsers returns all non-deleted users, newest first.
func (s *directoryService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser soft-deletes targetID and then tries to remove the matching
// identity-provider account. The local commit decides the outcome; the
// provider call can fail without undoing it.
func (s *directoryService) DeleteUser(ctx context.Context, requesterID, targetID string) (*domain.User, error) {
	// 1. Self-delete guard, before any I/O.
	if targetID == requesterID {
		return nil, domain.ErrSelfDelete
	}

	// 2. Look up by raw id. An already-deleted record counts as missing.
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if !target.Status.CanTransitionTo(domain.StatusDeleted) {
		return nil, fmt.Errorf("delete user: %s is %s: %w", targetID, target.Status, domain.ErrUserNotFound)
	}

	s.log.Info().
		Str("requester_id", requesterID).
		Str("target_id", target.ID).
		Str("username", target.Username).
		Msg("deleting user")

	// 3. Primary mutation.
	if err := s.repo.MarkDeleted(ctx, target.ID); err != nil {
		return nil, fmt.Errorf("delete user: mark deleted: %w", err)
	}
	target.Status = domain.StatusDeleted

	// 4. Best-effort cascade. The local delete is committed, so the provider
	// call and the ledger fallback must outlive the caller's request.
	s.cascade(context.WithoutCancel(ctx), target)

	return target, nil
}

// PendingSyncs lists users deleted locally whose provider account survived.
func (s *directoryService) PendingSyncs(ctx context.Context) ([]ports.PendingSync, error) {
	if s.ledger == nil {
		return []ports.PendingSync{}, nil
	}
	pending, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending syncs: %w", err)
	}
	return pending, nil
}

func (s *directoryService) cascade(ctx context.Context, target *domain.User) {
	err := s.idp.DeleteUser(ctx, target.ExternalSubjectID)
	if err == nil || errors.Is(err, domain.ErrSubjectGone) {
		metrics.UserDeletionsTotal.WithLabelValues(metrics.SyncFull).Inc()
		return
	}

	metrics.UserDeletionsTotal.WithLabelValues(metrics.SyncLocalOnly).Inc()
	s.log.Warn().
		Err(err).
		Str("user_id", target.ID).
		Str("keycloak_id", target.ExternalSubjectID).
		Msg("failed to delete user from identity provider")

	if s.ledger == nil {
		return
	}
	entry := ports.PendingSync{
		SubjectID: target.ExternalSubjectID,
		UserID:    target.ID,
		Username:  target.Username,
		FailedAt:  time.Now().UTC(),
		Attempts:  1,
		LastError: err.Error(),
	}
	if recErr := s.ledger.Record(ctx, entry); recErr != nil {
		s.log.Warn().Err(recErr).Str("keycloak_id", target.ExternalSubjectID).Msg("failed to record pending sync")
	}
}
