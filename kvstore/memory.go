package kvstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store backed by plain maps. It is deterministic
// (no background expiry sweep: records stay until deleted, exactly like a
// managed table whose sweep lags) which makes it the store of choice for
// tests and local development.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	desc TableDescription
	recs map[string]Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

// Seed creates table with the given schema, pre-populated with recs. It
// panics on a schema/record mismatch and is intended for test setup.
func (m *Memory) Seed(table string, desc TableDescription, recs ...Record) *Memory {
	if err := m.CreateTable(context.Background(), table, desc); err != nil {
		panic(err)
	}
	for _, rec := range recs {
		if err := m.PutItem(context.Background(), table, desc.KeyAttribute, rec); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *Memory) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", ErrNotFound, name)
	}
	return t, nil
}

// GetItem implements Store. Reads are always consistent; the flag is
// accepted for contract parity and ignored.
func (m *Memory) GetItem(_ context.Context, table, _ string, key string, _ bool) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.table(table)
	if err != nil {
		return nil, err
	}
	rec, ok := t.recs[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %q", ErrNotFound, key)
	}
	return rec.Clone(), nil
}

// PutItem implements Store.
func (m *Memory) PutItem(_ context.Context, table, keyAttr string, rec Record) error {
	key, ok := rec.StringAttr(keyAttr)
	if !ok {
		return fmt.Errorf("kvstore: record is missing string key attribute %q", keyAttr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	t.recs[key] = rec.Clone()
	return nil
}

// UpdateItem implements Store.
func (m *Memory) UpdateItem(_ context.Context, table, keyAttr, key string, fields Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	rec, ok := t.recs[key]
	if !ok {
		rec = Record{keyAttr: String(key)}
		t.recs[key] = rec
	}
	for k, v := range fields {
		rec[k] = v
	}
	return nil
}

// DeleteItem implements Store. Absent keys are silently ignored.
func (m *Memory) DeleteItem(_ context.Context, table, _ string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.table(table)
	if err != nil {
		return err
	}
	delete(t.recs, key)
	return nil
}

// DescribeTable implements Store.
func (m *Memory) DescribeTable(_ context.Context, table string) (TableDescription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.table(table)
	if err != nil {
		return TableDescription{}, err
	}
	return t.desc, nil
}

// CreateTable implements Store.
func (m *Memory) CreateTable(_ context.Context, table string, desc TableDescription) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table]; ok {
		return fmt.Errorf("%w: %q", ErrTableExists, table)
	}
	m.tables[table] = &memTable{desc: desc, recs: make(map[string]Record)}
	return nil
}
