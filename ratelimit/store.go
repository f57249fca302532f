package ratelimit

import (
	"context"

	"github.com/Keksclan/goTableCache/kvstore"
)

// Store wraps inner so that every operation first waits for a token from
// lim. Waiting respects context cancellation; a cancelled wait surfaces the
// context error without touching the store.
func Store(inner kvstore.Store, lim *Limiter) kvstore.Store {
	return &limitedStore{inner: inner, lim: lim}
}

type limitedStore struct {
	inner kvstore.Store
	lim   *Limiter
}

func (s *limitedStore) GetItem(ctx context.Context, table, keyAttr, key string, consistent bool) (kvstore.Record, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.GetItem(ctx, table, keyAttr, key, consistent)
}

func (s *limitedStore) PutItem(ctx context.Context, table, keyAttr string, rec kvstore.Record) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.inner.PutItem(ctx, table, keyAttr, rec)
}

func (s *limitedStore) UpdateItem(ctx context.Context, table, keyAttr, key string, fields kvstore.Record) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.inner.UpdateItem(ctx, table, keyAttr, key, fields)
}

func (s *limitedStore) DeleteItem(ctx context.Context, table, keyAttr, key string) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.inner.DeleteItem(ctx, table, keyAttr, key)
}

func (s *limitedStore) DescribeTable(ctx context.Context, table string) (kvstore.TableDescription, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return kvstore.TableDescription{}, err
	}
	return s.inner.DescribeTable(ctx, table)
}

func (s *limitedStore) CreateTable(ctx context.Context, table string, desc kvstore.TableDescription) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}
	return s.inner.CreateTable(ctx, table, desc)
}
