package gotablecache

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey reports a cache call with an empty key.
	ErrEmptyKey = errors.New("gotablecache: empty key")

	// ErrNilValue reports a Set call with a nil value.
	ErrNilValue = errors.New("gotablecache: nil value")

	// ErrInvalidTable reports a backing table whose schema cannot serve as
	// a cache: a composite key, or a non-string partition key. Every call
	// keeps re-running initialization (and returning this error) until the
	// table is fixed or recreated.
	ErrInvalidTable = errors.New("gotablecache: invalid table")
)

// StoreError wraps a failure from the backing store. Not-found responses
// are never wrapped; they are absences, not failures.
type StoreError struct {
	// Op is the cache operation during which the store failed.
	Op string

	// Err is the underlying store error.
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("gotablecache: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
