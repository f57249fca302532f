package gotablecache

import (
	"bytes"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// frontCache is an optional in-process read cache backed by ristretto,
// sitting in front of the table. Each entry has a cost of 1.
type frontCache struct {
	rc *ristretto.Cache[string, []byte]
}

func newFrontCache(maxCost int64) (*frontCache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &frontCache{rc: rc}, nil
}

func (f *frontCache) get(key string) ([]byte, bool) {
	v, ok := f.rc.Get(key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

func (f *frontCache) set(key string, val []byte, ttl time.Duration) {
	f.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	f.rc.Wait()
}

func (f *frontCache) del(key string) {
	f.rc.Del(key)
	f.rc.Wait()
}
