// Package setcache caches serialized entry sets between index rebuilds.
//
// The intended shape: a query-serving unit of work rebuilds its vector store
// per request for freshness, but the raw entry set it rebuilds from is
// expensive to fetch (typically an HTTP download of a pre-serialized list).
// The cache keeps those blobs warm with a TTL, deduplicates concurrent loads
// with singleflight, throttles refresh traffic, and optionally writes blobs
// through to a blob store so warm starts survive a process restart.
package setcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/annexsearch/annex/blobstore"
)

// ErrNotFound is returned when a key is absent and no loader is configured.
var ErrNotFound = blobstore.ErrNotFound

// Loader fetches the blob for a key from upstream.
type Loader func(ctx context.Context, key string) ([]byte, error)

// Options configures a Cache.
type Options struct {
	// TTL is how long a blob stays fresh. Default 15 minutes.
	TTL time.Duration

	// RefreshLimit throttles upstream loads triggered by expired entries.
	// When the limiter denies a refresh and stale data exists, the stale
	// blob is served instead. Default: unlimited.
	RefreshLimit rate.Limit
	RefreshBurst int

	// Store, if set, receives successful loads and manual sets
	// (best effort) and is consulted before the loader on cold misses.
	Store blobstore.BlobStore
}

// DefaultOptions contains the default configuration options for a Cache.
var DefaultOptions = Options{
	TTL:          15 * time.Minute,
	RefreshLimit: rate.Inf,
	RefreshBurst: 1,
}

// Cache is a TTL cache of key -> blob with deduplicated loading.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	loader  Loader
	group   singleflight.Group
	limiter *rate.Limiter
	opts    Options

	now func() time.Time // test hook
}

type entry struct {
	data    []byte
	expires time.Time
}

// New creates a Cache. loader may be nil, in which case Get only serves
// blobs placed by Set or found in the configured blob store.
func New(loader Loader, optFns ...func(o *Options)) *Cache {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultOptions.TTL
	}
	if opts.RefreshBurst <= 0 {
		opts.RefreshBurst = 1
	}

	return &Cache{
		entries: make(map[string]entry),
		loader:  loader,
		limiter: rate.NewLimiter(opts.RefreshLimit, opts.RefreshBurst),
		opts:    opts,
		now:     time.Now,
	}
}

// Get returns the blob for key, loading it when missing or expired.
//
// When a refresh is denied by the rate limiter, or the loader fails, a stale
// blob is served if one exists.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	fresh := ok && c.now().Before(e.expires)
	c.mu.RUnlock()

	if fresh {
		return clone(e.data), nil
	}

	// Expired with data on hand: only refresh within the throttle budget.
	if ok && !c.limiter.Allow() {
		return clone(e.data), nil
	}

	data, err, _ := c.group.Do(key, func() (any, error) {
		return c.load(ctx, key)
	})
	if err != nil {
		if ok {
			// Serve stale over failing.
			return clone(e.data), nil
		}
		return nil, err
	}
	return clone(data.([]byte)), nil
}

func (c *Cache) load(ctx context.Context, key string) ([]byte, error) {
	// Cold path: a persisted copy beats an upstream fetch.
	c.mu.RLock()
	_, have := c.entries[key]
	c.mu.RUnlock()

	if !have && c.opts.Store != nil {
		if data, err := c.opts.Store.Get(ctx, key); err == nil {
			c.put(key, data)
			return data, nil
		}
	}

	if c.loader == nil {
		return nil, ErrNotFound
	}

	data, err := c.loader(ctx, key)
	if err != nil {
		return nil, err
	}
	c.put(key, data)
	if c.opts.Store != nil {
		_ = c.opts.Store.Put(ctx, key, data)
	}
	return data, nil
}

// Set stores a blob under key with a fresh TTL and writes it through to the
// configured blob store.
func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	c.put(key, data)
	if c.opts.Store != nil {
		return c.opts.Store.Put(ctx, key, data)
	}
	return nil
}

func (c *Cache) put(key string, data []byte) {
	c.mu.Lock()
	c.entries[key] = entry{
		data:    clone(data),
		expires: c.now().Add(c.opts.TTL),
	}
	c.mu.Unlock()
}

// Touch extends the TTL of key without fetching. Reports whether the key was
// present.
func (c *Cache) Touch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.expires = c.now().Add(c.opts.TTL)
	c.entries[key] = e
	return true
}

// Invalidate drops key from the in-memory cache. The blob store copy, if
// any, is kept.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
