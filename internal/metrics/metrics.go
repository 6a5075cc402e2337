// Package metrics defines and registers all custom Prometheus metrics for the
// colink gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics next to the echoprometheus HTTP
// request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway"

// Label values for UserDeletionsTotal.
const (
	SyncFull      = "full"
	SyncLocalOnly = "local_only"
)

// ── Forwarding metrics ────────────────────────────────────────────────────────

// ForwardRequestsTotal counts proxied requests by outcome.
// Labels:
//   - service: downstream service name (e.g. "channel", "message")
//   - outcome: "ok" (any downstream response), "timeout", or "error"
var ForwardRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forward_requests_total",
		Help:      "Total number of requests forwarded to downstream services, by outcome.",
	},
	[]string{"service", "outcome"},
)

// ForwardDuration measures the round trip to a downstream service.
// Label:
//   - service: downstream service name
var ForwardDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forward_duration_seconds",
		Help:      "Duration of downstream round trips, including failed attempts.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"service"},
)

// ── Admin metrics ─────────────────────────────────────────────────────────────

// AdminAuthRejectionsTotal counts admin API calls refused by the guard.
// Label:
//   - reason: "missing_token", "authentication", "unknown_user", "not_admin"
var AdminAuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_auth_rejections_total",
		Help:      "Total number of admin API requests rejected by the authorization guard.",
	},
	[]string{"reason"},
)

// UserDeletionsTotal counts successful admin deletions by how far they got.
// Label:
//   - sync: "full" (local and identity provider) or "local_only"
var UserDeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_deletions_total",
		Help:      "Total number of users deleted through the admin API, by identity-provider sync result.",
	},
	[]string{"sync"},
)

// PendingSyncs tracks how many deleted users still exist at the identity provider.
var PendingSyncs = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "idp_pending_syncs",
		Help:      "Number of locally deleted users still awaiting deletion at the identity provider.",
	},
)

// SyncRetriesTotal counts reconciler retries of identity-provider deletions.
// Label:
//   - result: "synced" or "failed"
var SyncRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idp_sync_retries_total",
		Help:      "Total number of identity-provider deletion retries, by result.",
	},
	[]string{"result"},
)
