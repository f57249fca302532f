// Package gotablecache implements a distributed cache backed by a managed
// key-value table. Values are opaque byte slices addressed by string keys;
// expiration is governed by a [ttl.Policy] with absolute, relative, and
// sliding components.
//
// The table itself is a pluggable [kvstore.Store] collaborator. Expired
// records are masked client-side, because a managed table's own expiry
// sweep may lag the ttl date by many hours; sliding windows are renewed by
// a best-effort write-back on every read.
package gotablecache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Keksclan/goTableCache/kvstore"
	"github.com/Keksclan/goTableCache/tracing"
	"github.com/Keksclan/goTableCache/ttl"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"
)

// Persisted attribute names. These are a compatibility contract: a cache
// pointed at a table written by another deployment must read the same
// fields.
const (
	// ValueAttribute holds the opaque payload bytes.
	ValueAttribute = "value"

	// WindowAttribute holds the sliding-window length in whole seconds.
	// Absent means no sliding renewal.
	WindowAttribute = "ttl_window"

	// DeadlineAttribute holds the unix-seconds ceiling the ttl date may
	// never exceed. Absent means no ceiling.
	DeadlineAttribute = "ttl_deadline"

	// DefaultTTLAttribute is the ttl-date attribute name used when neither
	// WithTTLAttribute nor the table's native TTL configuration names one.
	DefaultTTLAttribute = "ttl_date"

	// DefaultKeyAttribute is the partition-key attribute used for tables
	// created by WithCreateTable.
	DefaultKeyAttribute = "key"

	// DefaultTable is the table name used when WithTable is not given.
	DefaultTable = "cache"
)

// Cache is a distributed byte cache over a single backing table. All
// methods are safe for concurrent use. The zero value is not usable; use
// [New].
type Cache struct {
	store kvstore.Store
	cfg   config
	front *frontCache

	// Initialization state: resolved at most once, on first use, under mu.
	// A failed initialization leaves started unset so the next call retries.
	started atomic.Bool
	mu      sync.Mutex
	keyAttr string
	ttlAttr string

	// renewals deduplicates concurrent ttl write-backs for the same key.
	renewals singleflight.Group
}

// New creates a Cache over store. The backing table is not touched until
// the first operation, which resolves (or, with WithCreateTable, creates)
// its schema.
func New(store kvstore.Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("gotablecache: nil store")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.table == "" {
		return nil, errors.New("gotablecache: empty table name")
	}

	c := &Cache{store: store, cfg: cfg}
	if cfg.frontMaxCost > 0 {
		front, err := newFrontCache(cfg.frontMaxCost)
		if err != nil {
			return nil, fmt.Errorf("gotablecache: front cache: %w", err)
		}
		c.front = front
	}
	return c, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func (c *Cache) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func (c *Cache) now() time.Time { return c.cfg.nowFunc() }

// ensureStarted resolves the table schema exactly once. Concurrent first
// calls block on the mutex until one of them completes; a failure (missing
// table without WithCreateTable, or an unusable schema) is returned to the
// caller and retried by the next operation.
func (c *Cache) ensureStarted(ctx context.Context) error {
	if c.started.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.Load() {
		return nil
	}

	desc, err := c.store.DescribeTable(ctx, c.cfg.table)
	if errors.Is(err, kvstore.ErrNotFound) && c.cfg.createTable {
		desc = kvstore.TableDescription{
			KeyAttribute: DefaultKeyAttribute,
			KeyKind:      kvstore.KindString,
			TTLAttribute: c.ttlAttributeName(kvstore.TableDescription{}),
		}
		if err = c.store.CreateTable(ctx, c.cfg.table, desc); err != nil && errors.Is(err, kvstore.ErrTableExists) {
			// Lost a create race against another process; use its table.
			desc, err = c.store.DescribeTable(ctx, c.cfg.table)
		}
	}
	if err != nil {
		return &StoreError{Op: "describe table", Err: err}
	}

	if desc.SortKeyAttribute != "" {
		return fmt.Errorf("%w: %q has a composite key (sort key %q); a cache table needs a single partition key",
			ErrInvalidTable, c.cfg.table, desc.SortKeyAttribute)
	}
	if desc.KeyKind != kvstore.KindString {
		return fmt.Errorf("%w: %q partition key %q is of type %s, want %s",
			ErrInvalidTable, c.cfg.table, desc.KeyAttribute, desc.KeyKind, kvstore.KindString)
	}

	c.keyAttr = desc.KeyAttribute
	c.ttlAttr = c.ttlAttributeName(desc)
	c.started.Store(true)
	return nil
}

// ttlAttributeName resolves the ttl-date attribute: explicit option first,
// then the table's native TTL attribute, then the default.
func (c *Cache) ttlAttributeName(desc kvstore.TableDescription) string {
	if c.cfg.ttlAttribute != "" {
		return c.cfg.ttlAttribute
	}
	if desc.TTLAttribute != "" {
		return desc.TTLAttribute
	}
	return DefaultTTLAttribute
}

func (c *Cache) partitionKey(key string) string { return c.cfg.prefix + key }

// Get returns the value stored under key. The boolean reports a cache hit;
// a record past its ttl date counts as a miss even when the store still
// holds it. When the hit carries a sliding window its ttl date is renewed
// in the same call (best effort; a renewal failure never fails the read).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	if c.front != nil {
		if v, ok := c.front.get(key); ok {
			c.cfg.metrics.Hit()
			return v, true, nil
		}
	}

	ctx, end := tracing.Start(ctx, c.cfg.tracing, "get", c.cfg.table, key)
	val, remaining, ok, err := c.getAndRefresh(ctx, key)
	end(err)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		c.cfg.metrics.Miss()
		return nil, false, nil
	}
	c.cfg.metrics.Hit()

	if c.front != nil {
		frontTTL := c.cfg.frontTTL
		if remaining > 0 && remaining < frontTTL {
			frontTTL = remaining
		}
		c.front.set(key, val, frontTTL)
	}
	return val, true, nil
}

// Refresh renews the sliding-window ttl of the record under key, exactly
// as a Get would, without returning the value. A missing or expired record
// is a silent no-op.
func (c *Cache) Refresh(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, end := tracing.Start(ctx, c.cfg.tracing, "refresh", c.cfg.table, key)
	_, _, _, err := c.getAndRefresh(ctx, key)
	end(err)
	return err
}

// getAndRefresh is the shared read path behind Get and Refresh. It returns
// the value bytes, the time left until the ttl date (0 when the record
// never expires), and whether a live record was found.
func (c *Cache) getAndRefresh(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	if err := c.ensureStarted(ctx); err != nil {
		return nil, 0, false, err
	}
	pk := c.partitionKey(key)

	start := time.Now() // real clock: latency, not ttl arithmetic
	rec, err := c.store.GetItem(ctx, c.cfg.table, c.keyAttr, pk, c.cfg.consistentReads)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			c.cfg.metrics.ObserveStore("get", time.Since(start), false)
			return nil, 0, false, nil
		}
		c.cfg.metrics.ObserveStore("get", time.Since(start), true)
		return nil, 0, false, &StoreError{Op: "get", Err: err}
	}
	c.cfg.metrics.ObserveStore("get", time.Since(start), false)

	val, ok := rec.BinaryAttr(ValueAttribute)
	if !ok {
		return nil, 0, false, nil
	}

	now := c.now()
	ttlDate, hasTTL := rec.NumberAttr(c.ttlAttr)
	if hasTTL && now.Unix() > ttlDate {
		// The store's own sweep has not caught up yet; mask the record.
		c.cfg.metrics.MaskedExpiry()
		return nil, 0, false, nil
	}

	if windowSec, hasWindow := rec.NumberAttr(WindowAttribute); hasWindow && hasTTL {
		deadline, hasDeadline := rec.NumberAttr(DeadlineAttribute)
		window := time.Duration(windowSec) * time.Second
		ttlDate = ttl.Renew(window, deadline, hasDeadline, now)
		c.renew(ctx, pk, ttlDate)
	}

	var remaining time.Duration
	if hasTTL {
		remaining = time.Unix(ttlDate, 0).Sub(now)
	}
	return val, remaining, true, nil
}

// renew writes the record's new ttl date back to the store, touching no
// other attribute. Concurrent renewals for the same key collapse into one
// round trip; a failure is logged and swallowed so that the read it rode
// on still succeeds.
func (c *Cache) renew(ctx context.Context, pk string, ttlDate int64) {
	_, _, _ = c.renewals.Do(pk, func() (any, error) {
		start := time.Now()
		err := c.store.UpdateItem(ctx, c.cfg.table, c.keyAttr, pk,
			kvstore.Record{c.ttlAttr: kvstore.Number(ttlDate)})
		c.cfg.metrics.ObserveStore("update", time.Since(start), err != nil)
		c.cfg.metrics.Refresh(err != nil)
		if err != nil {
			c.cfg.logger.Printf("gotablecache: ttl refresh of %q failed: %v", pk, err)
		}
		return nil, nil
	})
}

// Set stores value under key with the given expiration policy, replacing
// any existing record wholesale. A policy whose absolute expiration already
// lies in the past fails with [ttl.ErrPastExpiration] before anything is
// written.
func (c *Cache) Set(ctx context.Context, key string, value []byte, policy ttl.Policy) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		return ErrNilValue
	}
	if err := c.ensureStarted(ctx); err != nil {
		return err
	}

	// One clock reading feeds every derived value, so the deadline stored
	// standalone and the deadline folded into the expiry always agree.
	now := c.now()
	expiry, hasExpiry, err := ttl.Expiry(policy, now)
	if err != nil {
		return err
	}
	deadline, hasDeadline, _ := ttl.Deadline(policy, now)
	window, hasWindow := ttl.Window(policy)

	pk := c.partitionKey(key)
	rec := kvstore.Record{
		c.keyAttr:      kvstore.String(pk),
		ValueAttribute: kvstore.Binary(value),
	}
	if hasExpiry {
		rec[c.ttlAttr] = kvstore.Number(expiry)
	}
	if hasWindow {
		// Stored in whole seconds, rounded up so a window never shrinks.
		rec[WindowAttribute] = kvstore.Number(int64((window + time.Second - 1) / time.Second))
	}
	if hasDeadline {
		rec[DeadlineAttribute] = kvstore.Number(deadline)
	}

	ctx, end := tracing.Start(ctx, c.cfg.tracing, "set", c.cfg.table, key)
	start := time.Now()
	err = c.store.PutItem(ctx, c.cfg.table, c.keyAttr, rec)
	c.cfg.metrics.ObserveStore("put", time.Since(start), err != nil)
	end(err)
	if err != nil {
		return &StoreError{Op: "set", Err: err}
	}
	if c.front != nil {
		c.front.del(key)
	}
	return nil
}

// Remove deletes the record under key. Removing an absent key succeeds.
func (c *Cache) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.ensureStarted(ctx); err != nil {
		return err
	}

	ctx, end := tracing.Start(ctx, c.cfg.tracing, "remove", c.cfg.table, key)
	start := time.Now()
	err := c.store.DeleteItem(ctx, c.cfg.table, c.keyAttr, c.partitionKey(key))
	if errors.Is(err, kvstore.ErrNotFound) {
		err = nil
	}
	c.cfg.metrics.ObserveStore("delete", time.Since(start), err != nil)
	end(err)
	if err != nil {
		return &StoreError{Op: "remove", Err: err}
	}
	if c.front != nil {
		c.front.del(key)
	}
	return nil
}
