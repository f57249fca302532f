package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSweepGrace is how long a physically expired record outlives its
// ttl attribute in Redis. Managed table services sweep expired rows
// asynchronously, sometimes days late; keeping the record around for a
// grace period reproduces that behaviour (readers are expected to mask
// staleness themselves) while still reclaiming memory eventually.
const DefaultSweepGrace = 48 * time.Hour

// Redis is a Store backed by a Redis server. Each record is stored as a
// JSON document at "<table>:<key>"; each table's schema lives at
// "<table>!schema". The "!" separator cannot appear between a table name
// and a record key, so schema keys never collide with record keys.
type Redis struct {
	rdb *redis.Client

	// SweepGrace delays physical expiry of records past their ttl
	// attribute. Defaults to DefaultSweepGrace; set before first use.
	SweepGrace time.Duration

	mu    sync.RWMutex
	descs map[string]TableDescription
}

// NewRedis creates a Redis-backed store.
func NewRedis(addr, password string, db int) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// NewRedisFromClient wraps an existing client. The store takes ownership:
// Close closes the client.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{
		rdb:        rdb,
		SweepGrace: DefaultSweepGrace,
		descs:      make(map[string]TableDescription),
	}
}

// Ping checks the Redis connection.
func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *Redis) Close() error {
	return s.rdb.Close()
}

func recordKey(table, key string) string { return table + ":" + key }
func schemaKey(table string) string      { return table + "!schema" }

// GetItem implements Store. Redis reads are always strongly consistent
// against a single node; the consistent flag is ignored.
func (s *Redis) GetItem(ctx context.Context, table, _ string, key string, _ bool) (Record, error) {
	data, err := s.rdb.Get(ctx, recordKey(table, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: key %q", ErrNotFound, key)
		}
		return nil, fmt.Errorf("kvstore: redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("kvstore: redis record decode: %w", err)
	}
	return rec, nil
}

// PutItem implements Store.
func (s *Redis) PutItem(ctx context.Context, table, keyAttr string, rec Record) error {
	key, ok := rec.StringAttr(keyAttr)
	if !ok {
		return fmt.Errorf("kvstore: record is missing string key attribute %q", keyAttr)
	}
	return s.write(ctx, table, key, rec)
}

// UpdateItem implements Store. The merge is read-modify-write: concurrent
// updates to the same record are last-writer-wins, which is within the
// (absent) ordering guarantees of the Store contract.
func (s *Redis) UpdateItem(ctx context.Context, table, keyAttr, key string, fields Record) error {
	rec, err := s.GetItem(ctx, table, keyAttr, key, true)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		rec = Record{keyAttr: String(key)}
	}
	for k, v := range fields {
		rec[k] = v
	}
	return s.write(ctx, table, key, rec)
}

func (s *Redis) write(ctx context.Context, table, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kvstore: redis record encode: %w", err)
	}
	rk := recordKey(table, key)
	// Set with zero expiration also clears any previous TTL, so a record
	// rewritten without a ttl attribute stops expiring.
	if err := s.rdb.Set(ctx, rk, data, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set: %w", err)
	}
	if ttlSec, ok := s.nativeTTL(ctx, table, rec); ok {
		at := time.Unix(ttlSec, 0).Add(s.SweepGrace)
		if err := s.rdb.PExpireAt(ctx, rk, at).Err(); err != nil {
			return fmt.Errorf("kvstore: redis expire: %w", err)
		}
	}
	return nil
}

// nativeTTL returns the record's value for the table's native TTL
// attribute, when the table has one and the record carries it.
func (s *Redis) nativeTTL(ctx context.Context, table string, rec Record) (int64, bool) {
	desc, err := s.DescribeTable(ctx, table)
	if err != nil || desc.TTLAttribute == "" {
		return 0, false
	}
	return rec.NumberAttr(desc.TTLAttribute)
}

// DeleteItem implements Store. DEL on an absent key is a no-op.
func (s *Redis) DeleteItem(ctx context.Context, table, _ string, key string) error {
	if err := s.rdb.Del(ctx, recordKey(table, key)).Err(); err != nil {
		return fmt.Errorf("kvstore: redis del: %w", err)
	}
	return nil
}

// DescribeTable implements Store. Schemas are immutable once created, so
// the decoded description is cached in-process.
func (s *Redis) DescribeTable(ctx context.Context, table string) (TableDescription, error) {
	s.mu.RLock()
	desc, ok := s.descs[table]
	s.mu.RUnlock()
	if ok {
		return desc, nil
	}

	data, err := s.rdb.Get(ctx, schemaKey(table)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return TableDescription{}, fmt.Errorf("%w: table %q", ErrNotFound, table)
		}
		return TableDescription{}, fmt.Errorf("kvstore: redis schema get: %w", err)
	}
	if err := json.Unmarshal(data, &desc); err != nil {
		return TableDescription{}, fmt.Errorf("kvstore: redis schema decode: %w", err)
	}

	s.mu.Lock()
	s.descs[table] = desc
	s.mu.Unlock()
	return desc, nil
}

// CreateTable implements Store.
func (s *Redis) CreateTable(ctx context.Context, table string, desc TableDescription) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("kvstore: redis schema encode: %w", err)
	}
	created, err := s.rdb.SetNX(ctx, schemaKey(table), data, 0).Result()
	if err != nil {
		return fmt.Errorf("kvstore: redis schema set: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %q", ErrTableExists, table)
	}
	s.mu.Lock()
	s.descs[table] = desc
	s.mu.Unlock()
	return nil
}
