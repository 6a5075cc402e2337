package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	calls   int
	markErr error
	marked  []string
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		r.byID[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByExternalSubjectID(_ context.Context, subjectID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, u := range r.byID {
		if u.ExternalSubjectID == subjectID {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ListActive(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		if !u.IsDeleted() {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubUserRepo) MarkDeleted(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.markErr != nil {
		return r.markErr
	}
	u, ok := r.byID[id]
	if !ok || u.IsDeleted() {
		return domain.ErrUserNotFound
	}
	u.Status = domain.StatusDeleted
	r.marked = append(r.marked, id)
	return nil
}

func (r *stubUserRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// ---------------------------------------------------------------------------
// Identity provider
// ---------------------------------------------------------------------------

type stubIDP struct {
	userInfoFn func(ctx context.Context, token string) (*domain.Subject, error)
	deleteErr  error

	mu        sync.Mutex
	infoCalls int
	deleted   []string
}

func (p *stubIDP) UserInfo(ctx context.Context, token string) (*domain.Subject, error) {
	p.mu.Lock()
	p.infoCalls++
	p.mu.Unlock()
	if p.userInfoFn == nil {
		return nil, domain.ErrAuthentication
	}
	return p.userInfoFn(ctx, token)
}

func (p *stubIDP) DeleteUser(ctx context.Context, subjectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, subjectID)
	return p.deleteErr
}

// ---------------------------------------------------------------------------
// Sync ledger
// ---------------------------------------------------------------------------

type stubLedger struct {
	recordErr error
	entries   map[string]ports.PendingSync
}

func newStubLedger() *stubLedger {
	return &stubLedger{entries: make(map[string]ports.PendingSync)}
}

func (l *stubLedger) Record(ctx context.Context, entry ports.PendingSync) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.recordErr != nil {
		return l.recordErr
	}
	l.entries[entry.SubjectID] = entry
	return nil
}

func (l *stubLedger) Resolve(_ context.Context, subjectID string) error {
	delete(l.entries, subjectID)
	return nil
}

func (l *stubLedger) List(_ context.Context) ([]ports.PendingSync, error) {
	out := make([]ports.PendingSync, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedUser(id, subject, username string, role domain.Role, status domain.UserStatus, age time.Duration) *domain.User {
	return &domain.User{
		ID:                id,
		ExternalSubjectID: subject,
		Username:          username,
		Email:             username + "@example.com",
		Role:              role,
		Status:            status,
		CreatedAt:         baseTime.Add(-age),
	}
}
