package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/metrics"
)

const pendingKey = "gateway:idp_sync:pending"

// SyncLedger stores pending identity-provider deletions in a Redis hash.
// Field: keycloak subject id. Value: JSON-encoded ports.PendingSync.
type SyncLedger struct {
	client *redis.Client
}

// NewSyncLedger creates a SyncLedger wrapping the given Redis client.
func NewSyncLedger(client *redis.Client) *SyncLedger {
	return &SyncLedger{client: client}
}

// Record stores or replaces the entry for entry.SubjectID.
func (l *SyncLedger) Record(ctx context.Context, entry ports.PendingSync) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode pending sync: %w", err)
	}
	if err := l.client.HSet(ctx, pendingKey, entry.SubjectID, raw).Err(); err != nil {
		return fmt.Errorf("record pending sync: %w", err)
	}
	l.refreshGauge(ctx)
	return nil
}

// Resolve drops the entry for subjectID. Missing entries are not an error.
func (l *SyncLedger) Resolve(ctx context.Context, subjectID string) error {
	if err := l.client.HDel(ctx, pendingKey, subjectID).Err(); err != nil {
		return fmt.Errorf("resolve pending sync: %w", err)
	}
	l.refreshGauge(ctx)
	return nil
}

// List returns every pending entry, oldest failure first. Entries that cannot
// be decoded are skipped.
func (l *SyncLedger) List(ctx context.Context) ([]ports.PendingSync, error) {
	all, err := l.client.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending syncs: %w", err)
	}

	out := make([]ports.PendingSync, 0, len(all))
	for subjectID, raw := range all {
		var entry ports.PendingSync
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entry.SubjectID = subjectID
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FailedAt.Before(out[j].FailedAt)
	})

	metrics.PendingSyncs.Set(float64(len(all)))
	return out, nil
}

func (l *SyncLedger) refreshGauge(ctx context.Context) {
	if n, err := l.client.HLen(ctx, pendingKey).Result(); err == nil {
		metrics.PendingSyncs.Set(float64(n))
	}
}
