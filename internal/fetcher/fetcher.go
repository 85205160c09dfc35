// Package fetcher composes the cache, the singleflight coordinator, and the
// store registry into the read path: cache lookup, singleflight-coalesced
// upstream fetch on miss, and the detached prefetch entry point.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"cachegate/internal/cache"
	"cachegate/internal/metrics"
	"cachegate/internal/store"
)

// Fetcher is the process-wide, immutable read-path coordinator.
type Fetcher struct {
	cache    *cache.Cache
	registry *store.Registry
	metrics  *metrics.Metrics
	group    singleflight.Group

	// backgroundCtx is handed to the function singleflight.Do executes in
	// place of any individual caller's request context, so a client
	// disconnect can never cancel the shared fetch other waiters depend on.
	backgroundCtx context.Context
}

// New builds a Fetcher over the given cache, registry, and metrics sink.
func New(c *cache.Cache, registry *store.Registry, m *metrics.Metrics) *Fetcher {
	return &Fetcher{cache: c, registry: registry, metrics: m, backgroundCtx: context.Background()}
}

func singleflightKey(bucketID, path string) string {
	return bucketID + "\x00" + path
}

// Fetch resolves (bucketID, path) through cache, singleflight, and store, in
// that order. Callers may pass a request-scoped ctx; it governs only their
// own wait, never the underlying fetch performed on their behalf.
func (f *Fetcher) Fetch(ctx context.Context, bucketID, path string) (cache.Object, error) {
	key := cache.Key{BucketID: bucketID, Path: path}

	if obj, ok := f.cache.Get(key); ok {
		f.metrics.IncCacheHit()
		return obj, nil
	}
	f.metrics.IncCacheMiss()

	// DoChan starts (or joins) the coalesced fetch on its own goroutine and
	// hands back a channel for this caller's wait alone; cancelling ctx only
	// abandons this select, it never reaches the function running inside Do.
	resultCh := f.group.DoChan(singleflightKey(bucketID, path), func() (interface{}, error) {
		return f.populate(bucketID, path)
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return cache.Object{}, res.Err
		}
		return res.Val.(cache.Object), nil
	case <-ctx.Done():
		return cache.Object{}, ctx.Err()
	}
}

// populate performs the actual upstream fetch and cache insert. It always
// runs to completion once started, regardless of which caller's context
// triggered it, because it is invoked from the detached goroutine in Fetch
// rather than from the caller's own stack.
func (f *Fetcher) populate(bucketID, path string) (cache.Object, error) {
	s, err := f.registry.Lookup(bucketID)
	if err != nil {
		return cache.Object{}, err
	}

	start := time.Now()
	result, err := s.Get(f.backgroundCtx, path)
	f.metrics.ObserveUpstreamLatency(bucketID, time.Since(start))
	if err != nil {
		if _, ok := err.(*store.UpstreamError); ok {
			f.metrics.IncUpstreamError(bucketID)
		}
		return cache.Object{}, err
	}

	contentType := resolveContentType(result.ContentType, path, result.Bytes)
	obj := cache.Object{
		Bytes:       result.Bytes,
		ContentType: contentType,
		Size:        uint64(len(result.Bytes)),
	}

	f.cache.Insert(cache.Key{BucketID: bucketID, Path: path}, obj)
	return obj, nil
}

// PrefetchResult is the JSON-able outcome of a detached warm. Bytes is the
// object's size when it resolved synchronously from the cache; 0 means the
// warm was kicked off asynchronously and has not resolved yet.
type PrefetchResult struct {
	CacheHit bool
	Bytes    uint64
}

// Prefetch decouples cache warming from the requesting transaction: a hit
// resolves immediately, a miss launches the fetch in the background and
// returns without waiting for it.
func (f *Fetcher) Prefetch(bucketID, path string) PrefetchResult {
	key := cache.Key{BucketID: bucketID, Path: path}
	if obj, ok := f.cache.Get(key); ok {
		return PrefetchResult{CacheHit: true, Bytes: obj.Size}
	}

	go func() {
		_, _ = f.Fetch(f.backgroundCtx, bucketID, path)
	}()

	return PrefetchResult{CacheHit: false, Bytes: 0}
}

// Head resolves metadata for (bucketID, path) without populating the cache
// body, consulting the store directly. Used by the HEAD route when the
// object isn't already cached.
func (f *Fetcher) Head(ctx context.Context, bucketID, path string) (store.Metadata, error) {
	s, err := f.registry.Lookup(bucketID)
	if err != nil {
		return store.Metadata{}, err
	}

	start := time.Now()
	meta, err := s.Head(ctx, path)
	f.metrics.ObserveUpstreamLatency(bucketID, time.Since(start))
	if err != nil {
		if _, ok := err.(*store.UpstreamError); ok {
			f.metrics.IncUpstreamError(bucketID)
		}
		return store.Metadata{}, err
	}
	return meta, nil
}

// Put writes body to the store and, when it fits inside the cache's byte
// budget, inserts it directly so the next Fetch for the same key is a hit
// without a round trip to the store.
func (f *Fetcher) Put(ctx context.Context, bucketID, path string, body []byte, contentType string) error {
	s, err := f.registry.Lookup(bucketID)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.Put(ctx, path, bytes.NewReader(body), int64(len(body)), contentType)
	f.metrics.ObserveUpstreamLatency(bucketID, time.Since(start))
	if err != nil {
		if _, ok := err.(*store.UpstreamError); ok {
			f.metrics.IncUpstreamError(bucketID)
		}
		return err
	}

	resolved := resolveContentType(contentType, path, body)
	f.cache.Insert(cache.Key{BucketID: bucketID, Path: path}, cache.Object{
		Bytes:       body,
		ContentType: resolved,
		Size:        uint64(len(body)),
	})
	return nil
}

// CacheGet is a thin pass-through so the handler can check for a cache hit
// without reaching into the fetcher's internals.
func (f *Fetcher) CacheGet(bucketID, path string) (cache.Object, bool) {
	return f.cache.Get(cache.Key{BucketID: bucketID, Path: path})
}

func (f *Fetcher) String() string {
	return fmt.Sprintf("fetcher(entries=%d, bytes=%d)", f.cache.Len(), f.cache.SizeBytes())
}
