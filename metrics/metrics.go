// Package metrics provides Prometheus instrumentation for the cache access
// layer. It is entirely optional: a nil *Set is a valid no-op receiver, so
// the cache can call into it unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gotablecache"

// Set bundles the collectors the cache layer reports into.
type Set struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	maskedExpiries  prometheus.Counter
	refreshes       prometheus.Counter
	refreshFailures prometheus.Counter

	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
}

// New creates a Set and registers its collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them via the default /metrics
// handler.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "hits_total",
			Help: "Reads that returned a value.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "misses_total",
			Help: "Reads that found no usable record.",
		}),
		maskedExpiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "masked_expiries_total",
			Help: "Reads that found a record past its ttl date and masked it as absent.",
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ttl_refreshes_total",
			Help: "Sliding-window ttl write-backs performed on read.",
		}),
		refreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ttl_refresh_failures_total",
			Help: "Sliding-window ttl write-backs that failed and were swallowed.",
		}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "store_op_duration_seconds",
			Help:    "Latency of round trips to the backing store.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_op_errors_total",
			Help: "Store round trips that failed (not-found excluded).",
		}, []string{"op"}),
	}
	reg.MustRegister(s.hits, s.misses, s.maskedExpiries, s.refreshes,
		s.refreshFailures, s.storeLatency, s.storeErrors)
	return s
}

// Hit records a read that returned a value.
func (s *Set) Hit() {
	if s != nil {
		s.hits.Inc()
	}
}

// Miss records a read that found nothing usable.
func (s *Set) Miss() {
	if s != nil {
		s.misses.Inc()
	}
}

// MaskedExpiry records a read masked by the client-side staleness check.
func (s *Set) MaskedExpiry() {
	if s != nil {
		s.maskedExpiries.Inc()
	}
}

// Refresh records a ttl write-back attempt and whether it failed.
func (s *Set) Refresh(failed bool) {
	if s == nil {
		return
	}
	if failed {
		s.refreshFailures.Inc()
		return
	}
	s.refreshes.Inc()
}

// ObserveStore records one store round trip.
func (s *Set) ObserveStore(op string, d time.Duration, failed bool) {
	if s == nil {
		return
	}
	s.storeLatency.WithLabelValues(op).Observe(d.Seconds())
	if failed {
		s.storeErrors.WithLabelValues(op).Inc()
	}
}
