package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSet_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.Hit()
	s.Hit()
	s.Miss()
	s.MaskedExpiry()
	s.Refresh(false)
	s.Refresh(true)
	s.ObserveStore("get", 5*time.Millisecond, false)
	s.ObserveStore("put", 5*time.Millisecond, true)

	if got := testutil.ToFloat64(s.hits); got != 2 {
		t.Fatalf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.misses); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.maskedExpiries); got != 1 {
		t.Fatalf("masked expiries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.refreshes); got != 1 {
		t.Fatalf("refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.refreshFailures); got != 1 {
		t.Fatalf("refresh failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.storeErrors.WithLabelValues("put")); got != 1 {
		t.Fatalf("put errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.storeErrors.WithLabelValues("get")); got != 0 {
		t.Fatalf("get errors = %v, want 0", got)
	}
}

func TestSet_NilIsNoOp(t *testing.T) {
	var s *Set
	// Must not panic.
	s.Hit()
	s.Miss()
	s.MaskedExpiry()
	s.Refresh(true)
	s.ObserveStore("get", time.Millisecond, false)
}
