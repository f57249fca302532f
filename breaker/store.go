package breaker

import (
	"context"
	"errors"

	"github.com/Keksclan/goTableCache/kvstore"
)

// IgnoreAbsences is an Ignore classifier for store decorators: absences are
// answers, not failures, so a burst of cache misses must not trip the
// circuit.
func IgnoreAbsences(err error) bool {
	return errors.Is(err, kvstore.ErrNotFound) || errors.Is(err, kvstore.ErrTableExists)
}

// Store wraps inner behind br: every operation runs through [Breaker.Do]
// and is rejected with [ErrOpen] while the circuit is open. Configure the
// breaker with [IgnoreAbsences] (or a stricter classifier) so not-found
// responses pass through uncounted.
func Store(inner kvstore.Store, br *Breaker) kvstore.Store {
	return &breakingStore{inner: inner, br: br}
}

type breakingStore struct {
	inner kvstore.Store
	br    *Breaker
}

func (s *breakingStore) GetItem(ctx context.Context, table, keyAttr, key string, consistent bool) (kvstore.Record, error) {
	var rec kvstore.Record
	err := s.br.Do(func() error {
		var err error
		rec, err = s.inner.GetItem(ctx, table, keyAttr, key, consistent)
		return err
	})
	return rec, err
}

func (s *breakingStore) PutItem(ctx context.Context, table, keyAttr string, rec kvstore.Record) error {
	return s.br.Do(func() error {
		return s.inner.PutItem(ctx, table, keyAttr, rec)
	})
}

func (s *breakingStore) UpdateItem(ctx context.Context, table, keyAttr, key string, fields kvstore.Record) error {
	return s.br.Do(func() error {
		return s.inner.UpdateItem(ctx, table, keyAttr, key, fields)
	})
}

func (s *breakingStore) DeleteItem(ctx context.Context, table, keyAttr, key string) error {
	return s.br.Do(func() error {
		return s.inner.DeleteItem(ctx, table, keyAttr, key)
	})
}

func (s *breakingStore) DescribeTable(ctx context.Context, table string) (kvstore.TableDescription, error) {
	var desc kvstore.TableDescription
	err := s.br.Do(func() error {
		var err error
		desc, err = s.inner.DescribeTable(ctx, table)
		return err
	})
	return desc, err
}

func (s *breakingStore) CreateTable(ctx context.Context, table string, desc kvstore.TableDescription) error {
	return s.br.Do(func() error {
		return s.inner.CreateTable(ctx, table, desc)
	})
}
