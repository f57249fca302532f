package retry

import (
	"context"
	"errors"

	"github.com/Keksclan/goTableCache/kvstore"
)

// TransientOnly is a Retryable classifier suitable for store decorators:
// it retries everything except absences, which are answers, not failures.
func TransientOnly(err error) bool {
	return !errors.Is(err, kvstore.ErrNotFound) && !errors.Is(err, kvstore.ErrTableExists)
}

// Store wraps inner so that every operation runs through [Do] with cfg.
// When cfg.Retryable is nil, [TransientOnly] is used.
func Store(inner kvstore.Store, cfg Config) kvstore.Store {
	if cfg.Retryable == nil {
		cfg.Retryable = TransientOnly
	}
	return &retryingStore{inner: inner, cfg: cfg}
}

type retryingStore struct {
	inner kvstore.Store
	cfg   Config
}

func (s *retryingStore) GetItem(ctx context.Context, table, keyAttr, key string, consistent bool) (kvstore.Record, error) {
	return Do(ctx, s.cfg, func(ctx context.Context) (kvstore.Record, error) {
		return s.inner.GetItem(ctx, table, keyAttr, key, consistent)
	})
}

func (s *retryingStore) PutItem(ctx context.Context, table, keyAttr string, rec kvstore.Record) error {
	_, err := Do(ctx, s.cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.PutItem(ctx, table, keyAttr, rec)
	})
	return err
}

func (s *retryingStore) UpdateItem(ctx context.Context, table, keyAttr, key string, fields kvstore.Record) error {
	_, err := Do(ctx, s.cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.UpdateItem(ctx, table, keyAttr, key, fields)
	})
	return err
}

func (s *retryingStore) DeleteItem(ctx context.Context, table, keyAttr, key string) error {
	_, err := Do(ctx, s.cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.DeleteItem(ctx, table, keyAttr, key)
	})
	return err
}

func (s *retryingStore) DescribeTable(ctx context.Context, table string) (kvstore.TableDescription, error) {
	return Do(ctx, s.cfg, func(ctx context.Context) (kvstore.TableDescription, error) {
		return s.inner.DescribeTable(ctx, table)
	})
}

func (s *retryingStore) CreateTable(ctx context.Context, table string, desc kvstore.TableDescription) error {
	_, err := Do(ctx, s.cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.CreateTable(ctx, table, desc)
	})
	return err
}
