package gotablecache

import (
	"log"
	"time"

	"github.com/Keksclan/goTableCache/metrics"
	"github.com/Keksclan/goTableCache/tracing"
)

// Option configures a Cache.
type Option func(*config)

// WithTable sets the backing table name. Defaults to [DefaultTable].
func WithTable(name string) Option {
	return func(c *config) {
		c.table = name
	}
}

// WithKeyPrefix namespaces every cache key: the stored partition key is the
// prefix concatenated with the caller's key.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithConsistentReads makes Get and Refresh request strongly consistent
// reads from the store. The default is eventually consistent: cheaper, but
// a Get immediately after a Set may observe stale or absent data.
func WithConsistentReads() Option {
	return func(c *config) {
		c.consistentReads = true
	}
}

// WithTTLAttribute overrides the attribute name the ttl date is stored
// under. Without this option the name is auto-detected from the table's
// native TTL configuration, falling back to [DefaultTTLAttribute].
func WithTTLAttribute(name string) Option {
	return func(c *config) {
		c.ttlAttribute = name
	}
}

// WithCreateTable makes initialization create the backing table (string
// partition key, native TTL on the ttl attribute) when it does not exist
// yet, instead of failing.
func WithCreateTable() Option {
	return func(c *config) {
		c.createTable = true
	}
}

// WithLogger sets the logger used for swallowed ttl write-back failures.
// Defaults to [log.Default].
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock overrides the wall clock. Intended for tests that need
// deterministic ttl arithmetic.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.nowFunc = now
	}
}

// WithMetrics wires in a Prometheus collector set.
func WithMetrics(s *metrics.Set) Option {
	return func(c *config) {
		c.metrics = s
	}
}

// WithTracing enables OpenTelemetry spans around every cache operation.
func WithTracing(cfg *tracing.Config) Option {
	return func(c *config) {
		c.tracing = cfg
	}
}

// WithFrontCache puts a small in-process read cache (ristretto) in front of
// the table. Entries served from it skip the store round trip (and with it
// the sliding-window renewal) for at most frontTTL, so keep frontTTL well
// below the smallest sliding window in use. maxCost is the maximum number
// of entries held.
func WithFrontCache(maxCost int64, frontTTL time.Duration) Option {
	return func(c *config) {
		c.frontMaxCost = maxCost
		c.frontTTL = frontTTL
	}
}
