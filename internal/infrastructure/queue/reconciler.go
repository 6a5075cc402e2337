package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

type job struct {
	entry ports.PendingSync
	done  *sync.WaitGroup
}

// Reconciler retries identity-provider deletions that failed during an admin
// delete. Pending entries are routed to a fixed set of workers by hashing the
// subject id, so one subject is never retried by two workers at once.
type Reconciler struct {
	workers  []chan job
	ledger   ports.SyncLedger
	idp      ports.IdentityProvider
	interval time.Duration
	log      zerolog.Logger
}

// NewReconciler creates a Reconciler with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. An interval <= 0 disables the
// periodic pass; RunOnce still works.
func NewReconciler(numWorkers int, interval time.Duration, ledger ports.SyncLedger, idp ports.IdentityProvider, log zerolog.Logger) *Reconciler {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Reconciler{
		workers:  make([]chan job, numWorkers),
		ledger:   ledger,
		idp:      idp,
		interval: interval,
		log:      log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan job, channelBuffer)
	}
	return r
}

// Start launches the workers and, when an interval is set, the periodic
// pass. Everything stops when ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
	if r.interval > 0 {
		go r.loop(ctx)
	}
}

func (r *Reconciler) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("identity sync pass failed")
			}
		}
	}
}

// RunOnce retries every pending entry and returns when all of them have been
// attempted. Start must have been called.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	pending, err := r.ledger.List(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, entry := range pending {
		wg.Add(1)
		select {
		case r.workers[r.shardIndex(entry.SubjectID)] <- job{entry: entry, done: &wg}:
		case <-ctx.Done():
			wg.Done()
		}
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.log.Info().Int("pending", len(pending)).Msg("identity sync pass complete")
	return nil
}

// shardIndex maps a subject id deterministically to a worker index.
func (r *Reconciler) shardIndex(subjectID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	return int(h.Sum32() % uint32(len(r.workers)))
}

func (r *Reconciler) runWorker(ctx context.Context, id int, ch <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-ch:
			if !ok {
				return
			}
			r.retry(ctx, id, j.entry)
			j.done.Done()
		}
	}
}

func (r *Reconciler) retry(ctx context.Context, workerID int, entry ports.PendingSync) {
	err := r.idp.DeleteUser(ctx, entry.SubjectID)
	if err == nil || errors.Is(err, domain.ErrSubjectGone) {
		metrics.SyncRetriesTotal.WithLabelValues("synced").Inc()
		if resErr := r.ledger.Resolve(ctx, entry.SubjectID); resErr != nil {
			r.log.Warn().Err(resErr).Str("keycloak_id", entry.SubjectID).Msg("failed to clear pending sync")
			return
		}
		r.log.Info().
			Str("keycloak_id", entry.SubjectID).
			Str("user_id", entry.UserID).
			Int("worker_id", workerID).
			Msg("identity provider account deleted")
		return
	}

	metrics.SyncRetriesTotal.WithLabelValues("failed").Inc()
	entry.Attempts++
	entry.LastError = err.Error()
	if recErr := r.ledger.Record(ctx, entry); recErr != nil {
		r.log.Warn().Err(recErr).Str("keycloak_id", entry.SubjectID).Msg("failed to update pending sync")
	}
	r.log.Warn().Err(err).
		Str("keycloak_id", entry.SubjectID).
		Int("attempts", entry.Attempts).
		Int("worker_id", workerID).
		Msg("identity provider deletion retry failed")
}
