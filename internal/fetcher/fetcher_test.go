package fetcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cachegate/internal/cache"
	"cachegate/internal/metrics"
	"cachegate/internal/store"
	"cachegate/internal/store/mocks"
)

var assertErr = errors.New("upstream boom")

func newFetcher(maxBytes uint64, stores map[string]store.Store) (*Fetcher, *metrics.Metrics) {
	m := metrics.New()
	reg := store.NewRegistry(stores)
	c := cache.New(maxBytes, time.Minute)
	return New(c, reg, m), m
}

func TestFetchFreshMissThenHit(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Get", mock.Anything, "a.txt").
		Return(store.Result{Bytes: []byte("hello world"), ContentType: "text/plain"}, nil).Once()

	f, m := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	obj, err := f.Fetch(context.Background(), "media-s3", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(obj.Bytes))
	assert.Equal(t, "text/plain", obj.ContentType)

	obj2, err := f.Fetch(context.Background(), "media-s3", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(obj2.Bytes))

	mockStore.AssertExpectations(t)
	snap := m.Snapshot(0, 0)
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestFetchUnknownBucket(t *testing.T) {
	f, _ := newFetcher(1000, map[string]store.Store{})

	_, err := f.Fetch(context.Background(), "nope", "a.txt")
	assert.ErrorIs(t, err, store.ErrUnknownBucket)
}

func TestFetchUpstreamNotFound(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Get", mock.Anything, "missing.txt").Return(store.Result{}, store.ErrNotFound).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	_, err := f.Fetch(context.Background(), "media-s3", "missing.txt")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFetchTooLargeObjectServedButNotCached(t *testing.T) {
	payload := make([]byte, 500)
	mockStore := new(mocks.MockStore)
	mockStore.On("Get", mock.Anything, "big.bin").Return(store.Result{Bytes: payload}, nil).Once()

	f, m := newFetcher(100, map[string]store.Store{"media-s3": mockStore})

	obj, err := f.Fetch(context.Background(), "media-s3", "big.bin")
	require.NoError(t, err)
	assert.Len(t, obj.Bytes, 500)

	snap := m.Snapshot(f.cache.Len(), f.cache.SizeBytes())
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(0), snap.CacheEntries)
}

func TestFetchSingleflightCollapsesConcurrentMisses(t *testing.T) {
	var calls atomic.Int32
	mockStore := new(mocks.MockStore)
	mockStore.On("Get", mock.Anything, "slow.bin").
		Run(func(mock.Arguments) {
			calls.Add(1)
			time.Sleep(50 * time.Millisecond)
		}).
		Return(store.Result{Bytes: []byte("payload")}, nil).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	const concurrency = 50
	var wg sync.WaitGroup
	results := make([][]byte, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			obj, err := f.Fetch(context.Background(), "media-s3", "slow.bin")
			require.NoError(t, err)
			results[idx] = obj.Bytes
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "payload", string(r))
	}
	assert.Equal(t, int32(1), calls.Load())
	mockStore.AssertNumberOfCalls(t, "Get", 1)
}

func TestFetchCancelledWaiterDoesNotCancelSharedFetch(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Get", mock.Anything, "slow.bin").
		Run(func(mock.Arguments) { time.Sleep(100 * time.Millisecond) }).
		Return(store.Result{Bytes: []byte("payload")}, nil).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.Fetch(ctx, "media-s3", "slow.bin")
		assert.ErrorIs(t, err, context.Canceled)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()

	obj, ok := f.CacheGet("media-s3", "slow.bin")
	if !ok {
		time.Sleep(150 * time.Millisecond)
		obj, ok = f.CacheGet("media-s3", "slow.bin")
	}
	require.True(t, ok, "shared fetch should have populated the cache despite the waiter's cancellation")
	assert.Equal(t, "payload", string(obj.Bytes))
	mockStore.AssertNumberOfCalls(t, "Get", 1)
}

func TestPrefetchHitReturnsImmediately(t *testing.T) {
	f, _ := newFetcher(1000, map[string]store.Store{})
	f.cache.Insert(cache.Key{BucketID: "b", Path: "p"}, cache.Object{Bytes: []byte("x"), Size: 1})

	res := f.Prefetch("b", "p")
	assert.True(t, res.CacheHit)
	assert.Equal(t, uint64(1), res.Bytes)
}

func TestPrefetchMissKicksBackgroundFetch(t *testing.T) {
	mockStore := new(mocks.MockStore)
	done := make(chan struct{})
	mockStore.On("Get", mock.Anything, "a.txt").
		Run(func(mock.Arguments) { close(done) }).
		Return(store.Result{Bytes: []byte("x")}, nil).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	res := f.Prefetch("media-s3", "a.txt")
	assert.False(t, res.CacheHit)
	assert.Equal(t, uint64(0), res.Bytes)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background prefetch never called the store")
	}
}

func TestPutInsertsIntoCacheOnSuccess(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Put", mock.Anything, "a.txt", mock.Anything, int64(5), "text/plain").
		Return(nil).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	err := f.Put(context.Background(), "media-s3", "a.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)

	obj, ok := f.CacheGet("media-s3", "a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Bytes))
	assert.Equal(t, "text/plain", obj.ContentType)
}

func TestPutPropagatesUpstreamError(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Put", mock.Anything, "a.txt", mock.Anything, int64(5), "").
		Return(&store.UpstreamError{StoreID: "media-s3", Cause: assertErr}).Once()

	f, m := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	err := f.Put(context.Background(), "media-s3", "a.txt", []byte("hello"), "")
	require.Error(t, err)

	_, ok := f.CacheGet("media-s3", "a.txt")
	assert.False(t, ok)

	snap := m.Snapshot(0, 0)
	assert.Equal(t, uint64(1), snap.UpstreamErrors)
}

func TestHeadDoesNotTouchCache(t *testing.T) {
	mockStore := new(mocks.MockStore)
	mockStore.On("Head", mock.Anything, "a.txt").
		Return(store.Metadata{Size: 42, ContentType: "text/plain"}, nil).Once()

	f, _ := newFetcher(1000, map[string]store.Store{"media-s3": mockStore})

	meta, err := f.Head(context.Background(), "media-s3", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), meta.Size)

	_, ok := f.CacheGet("media-s3", "a.txt")
	assert.False(t, ok)
}
