package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// schemaBucket holds one TableDescription per table, keyed by table name.
var schemaBucket = []byte("!schema")

// Bolt is a Store persisted in a single bbolt file: one bucket per table
// with JSON-encoded records, plus a schema bucket. It never expires records
// itself, like a managed table whose sweep is arbitrarily late, so the
// reader-side staleness masking in the cache layer is fully observable.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the store file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("kvstore: bolt open: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(schemaBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: bolt init: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the underlying database file.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) tableBucket(tx *bolt.Tx, table string) (*bolt.Bucket, error) {
	if tx.Bucket(schemaBucket).Get([]byte(table)) == nil {
		return nil, fmt.Errorf("%w: table %q", ErrNotFound, table)
	}
	b := tx.Bucket([]byte(table))
	if b == nil {
		return nil, fmt.Errorf("%w: table %q", ErrNotFound, table)
	}
	return b, nil
}

// GetItem implements Store. bbolt reads see the latest committed write;
// the consistent flag is ignored.
func (s *Bolt) GetItem(ctx context.Context, table, _ string, key string, _ bool) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: key %q", ErrNotFound, key)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PutItem implements Store.
func (s *Bolt) PutItem(ctx context.Context, table, keyAttr string, rec Record) error {
	key, ok := rec.StringAttr(keyAttr)
	if !ok {
		return fmt.Errorf("kvstore: record is missing string key attribute %q", keyAttr)
	}
	return s.write(ctx, table, key, rec)
}

// UpdateItem implements Store. The merge happens inside a single write
// transaction, so it is atomic with respect to other Bolt operations.
func (s *Bolt) UpdateItem(ctx context.Context, table, keyAttr, key string, fields Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		rec := Record{keyAttr: String(key)}
		if data := b.Get([]byte(key)); data != nil {
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("kvstore: bolt record decode: %w", err)
			}
		}
		for k, v := range fields {
			rec[k] = v
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("kvstore: bolt record encode: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

func (s *Bolt) write(ctx context.Context, table, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kvstore: bolt record encode: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// DeleteItem implements Store. Deleting an absent key is a no-op.
func (s *Bolt) DeleteItem(ctx context.Context, table, _ string, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		return b.Delete([]byte(key))
	})
}

// DescribeTable implements Store.
func (s *Bolt) DescribeTable(ctx context.Context, table string) (TableDescription, error) {
	var desc TableDescription
	if err := ctx.Err(); err != nil {
		return desc, err
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(schemaBucket).Get([]byte(table))
		if data == nil {
			return fmt.Errorf("%w: table %q", ErrNotFound, table)
		}
		return json.Unmarshal(data, &desc)
	})
	return desc, err
}

// CreateTable implements Store.
func (s *Bolt) CreateTable(ctx context.Context, table string, desc TableDescription) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("kvstore: bolt schema encode: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		sb := tx.Bucket(schemaBucket)
		if sb.Get([]byte(table)) != nil {
			return fmt.Errorf("%w: %q", ErrTableExists, table)
		}
		if err := sb.Put([]byte(table), data); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(table))
		return err
	})
}
