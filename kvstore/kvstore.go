// Package kvstore defines the key-value table collaborator consumed by the
// cache access layer, plus memory, Redis, and bbolt implementations.
//
// A table holds flat records: a mapping from attribute name to a typed
// scalar [Value]. Every record is addressed by a single string partition
// key whose attribute name is part of the table's schema, not of this
// contract; callers resolve it via [Store.DescribeTable] and pass it into
// each operation.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a record (or table) does not exist. It is
	// routine control flow for readers and deleters, not a failure.
	ErrNotFound = errors.New("kvstore: not found")

	// ErrTableExists reports that CreateTable was asked to create a table
	// that already exists.
	ErrTableExists = errors.New("kvstore: table already exists")
)

// Kind identifies the scalar type a key attribute is declared with.
type Kind string

const (
	KindString Kind = "S"
	KindNumber Kind = "N"
	KindBinary Kind = "B"
)

// Value is a typed scalar attribute: exactly one of the fields is set.
// The JSON form ({"S":...}, {"N":...}, {"B":...}, {"BOOL":...},
// {"NULL":true}) is the persisted representation used by the Redis and
// bbolt stores.
type Value struct {
	S    *string `json:"S,omitempty"`
	N    *int64  `json:"N,omitempty"`
	B    []byte  `json:"B,omitempty"`
	BOOL *bool   `json:"BOOL,omitempty"`
	NULL bool    `json:"NULL,omitempty"`
}

// String returns a string Value.
func String(s string) Value { return Value{S: &s} }

// Number returns a numeric Value.
func Number(n int64) Value { return Value{N: &n} }

// Binary returns a binary Value. The slice is stored as-is, not copied.
func Binary(b []byte) Value { return Value{B: b} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{BOOL: &b} }

// Null returns the null Value.
func Null() Value { return Value{NULL: true} }

// Record is a flat attribute map, as stored in a table.
type Record map[string]Value

// StringAttr returns the string value of the named attribute.
func (r Record) StringAttr(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v.S == nil {
		return "", false
	}
	return *v.S, true
}

// NumberAttr returns the numeric value of the named attribute.
func (r Record) NumberAttr(name string) (int64, bool) {
	v, ok := r[name]
	if !ok || v.N == nil {
		return 0, false
	}
	return *v.N, true
}

// BinaryAttr returns the binary value of the named attribute.
func (r Record) BinaryAttr(name string) ([]byte, bool) {
	v, ok := r[name]
	if !ok || v.B == nil {
		return nil, false
	}
	return v.B, true
}

// Clone returns a shallow copy of r (attribute values are shared).
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// TableDescription is the schema surface the cache layer needs: which
// attribute is the partition key, whether a sort key makes the key
// composite, and which attribute (if any) the store's native TTL sweep
// watches.
type TableDescription struct {
	// KeyAttribute is the partition-key attribute name.
	KeyAttribute string

	// KeyKind is the declared scalar type of the partition key.
	KeyKind Kind

	// SortKeyAttribute is non-empty when the table has a composite key.
	SortKeyAttribute string

	// TTLAttribute names the attribute the store's own expiry sweep reads,
	// or "" when native TTL is not enabled on the table.
	TTLAttribute string
}

// Validate reports whether the description can back a table at all.
func (d TableDescription) Validate() error {
	if d.KeyAttribute == "" {
		return fmt.Errorf("kvstore: table description has no key attribute")
	}
	switch d.KeyKind {
	case KindString, KindNumber, KindBinary:
	default:
		return fmt.Errorf("kvstore: unknown key kind %q", d.KeyKind)
	}
	return nil
}

// Store is the external table collaborator. Implementations must be safe
// for concurrent use; they offer no ordering guarantee across operations
// beyond what the backing service itself provides.
type Store interface {
	// GetItem fetches the record whose partition key equals key. When
	// consistent is false the implementation may serve an eventually
	// consistent read. Returns ErrNotFound when no record exists.
	GetItem(ctx context.Context, table, keyAttr, key string, consistent bool) (Record, error)

	// PutItem writes rec as a full overwrite of whatever record currently
	// holds the same partition key. rec must contain keyAttr.
	PutItem(ctx context.Context, table, keyAttr string, rec Record) error

	// UpdateItem merges fields into the existing record with the given
	// partition key, creating the record if absent.
	UpdateItem(ctx context.Context, table, keyAttr, key string, fields Record) error

	// DeleteItem removes the record with the given partition key. Deleting
	// an absent record is not an error.
	DeleteItem(ctx context.Context, table, keyAttr, key string) error

	// DescribeTable returns the table's schema, or ErrNotFound when the
	// table does not exist.
	DescribeTable(ctx context.Context, table string) (TableDescription, error)

	// CreateTable creates a table with the given schema. Returns
	// ErrTableExists when the table is already present.
	CreateTable(ctx context.Context, table string, desc TableDescription) error
}
