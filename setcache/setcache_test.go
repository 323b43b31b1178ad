package setcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/annexsearch/annex/blobstore"
)

func TestGetLoadsOnce(t *testing.T) {
	ctx := context.Background()

	var loads atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		loads.Add(1)
		return []byte("set:" + key), nil
	})

	for i := 0; i < 3; i++ {
		data, err := c.Get(ctx, "fields")
		require.NoError(t, err)
		assert.Equal(t, []byte("set:fields"), data)
	}
	assert.Equal(t, int64(1), loads.Load(), "fresh entries must not hit the loader")
}

func TestExpiryTriggersReload(t *testing.T) {
	ctx := context.Background()

	var loads atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		loads.Add(1)
		return []byte("v"), nil
	}, func(o *Options) {
		o.TTL = time.Minute
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loads.Load())
}

func TestTouchExtendsTTL(t *testing.T) {
	ctx := context.Background()

	var loads atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		loads.Add(1)
		return []byte("v"), nil
	}, func(o *Options) {
		o.TTL = time.Minute
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	require.True(t, c.Touch("k"))

	now = now.Add(50 * time.Second) // past the original expiry, inside the touched one
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loads.Load(), "touched entry must still be fresh")

	assert.False(t, c.Touch("missing"))
}

func TestStaleServedOnLoaderFailure(t *testing.T) {
	ctx := context.Background()

	var fail atomic.Bool
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		if fail.Load() {
			return nil, errors.New("upstream down")
		}
		return []byte("good"), nil
	}, func(o *Options) {
		o.TTL = time.Minute
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	fail.Store(true)
	now = now.Add(2 * time.Minute)

	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), data, "stale data beats a failing upstream")

	_, err = c.Get(ctx, "never-loaded")
	assert.Error(t, err)
}

func TestRefreshThrottle(t *testing.T) {
	ctx := context.Background()

	var loads atomic.Int64
	c := New(func(ctx context.Context, key string) ([]byte, error) {
		loads.Add(1)
		return []byte("v"), nil
	}, func(o *Options) {
		o.TTL = time.Millisecond
		o.RefreshLimit = rate.Every(time.Hour)
		o.RefreshBurst = 1
	})

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	// All expired gets beyond the burst budget must serve stale data.
	now = now.Add(time.Second)
	for i := 0; i < 5; i++ {
		data, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), data)
	}
	assert.LessOrEqual(t, loads.Load(), int64(2))
}

func TestBlobStoreWriteThroughAndColdStart(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	c1 := New(func(ctx context.Context, key string) ([]byte, error) {
		return []byte("fetched"), nil
	}, func(o *Options) {
		o.Store = store
	})

	_, err := c1.Get(ctx, "k")
	require.NoError(t, err)

	persisted, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fetched"), persisted)

	// A fresh cache with no loader warm-starts from the blob store.
	c2 := New(nil, func(o *Options) {
		o.Store = store
	})
	data, err := c2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fetched"), data)

	_, err = c2.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	require.NoError(t, c.Set(ctx, "k", []byte("manual")))
	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("manual"), data)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("k")
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fields.json":
			_, _ = w.Write([]byte(`[{"id":"a"}]`))
		case "/gone":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	loader := HTTPLoader(srv.Client())
	ctx := context.Background()

	data, err := loader(ctx, srv.URL+"/fields.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"a"}]`), data)

	_, err = loader(ctx, srv.URL+"/gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = loader(ctx, srv.URL+"/boom")
	assert.Error(t, err)
}
