// Package metrics registers the herre Prometheus collectors on the default
// registry; cmd/herre-service exposes them at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IdentityFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herre",
		Name:      "identity_fetch_total",
		Help:      "Identity fetches by outcome.",
	}, []string{"outcome"})

	IdentityFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "herre",
		Name:      "identity_fetch_duration_seconds",
		Help:      "Latency of identity endpoint round trips.",
		Buckets:   prometheus.DefBuckets,
	})

	GrantResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herre",
		Name:      "grant_resolve_total",
		Help:      "Grant registry lookups by grant type and result.",
	}, []string{"grant_type", "result"})

	DefaultUserOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "herre",
		Name:      "default_user_ops_total",
		Help:      "Default-user store operations by op and result.",
	}, []string{"op", "result"})
)

func init() {
	prometheus.MustRegister(IdentityFetches, IdentityFetchDuration, GrantResolutions, DefaultUserOps)
}

// Outcome labels for IdentityFetches.
const (
	OutcomeOK          = "ok"
	OutcomeConfig      = "config_error"
	OutcomeMalformed   = "malformed_response"
	OutcomeAuthFailure = "authentication_failure"
	OutcomeTransport   = "transport_error"
)

// ObserveFetch records one identity fetch.
func ObserveFetch(outcome string, started time.Time) {
	IdentityFetches.WithLabelValues(outcome).Inc()
	IdentityFetchDuration.Observe(time.Since(started).Seconds())
}
