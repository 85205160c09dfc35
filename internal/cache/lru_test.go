package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndGet(t *testing.T) {
	c := New(1000, time.Minute)
	key := Key{BucketID: "media-s3", Path: "a.txt"}
	c.Insert(key, Object{Bytes: []byte("hello world"), ContentType: "text/plain", Size: 11})

	obj, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "hello world", string(obj.Bytes))
	assert.Equal(t, uint64(11), c.SizeBytes())
}

func TestGetMissing(t *testing.T) {
	c := New(1000, time.Minute)
	_, ok := c.Get(Key{BucketID: "b", Path: "missing"})
	assert.False(t, ok)
}

func TestEvictionByByteBudget(t *testing.T) {
	c := New(100, time.Minute)
	k1 := Key{BucketID: "b", Path: "k1"}
	k2 := Key{BucketID: "b", Path: "k2"}
	k3 := Key{BucketID: "b", Path: "k3"}

	c.Insert(k1, Object{Bytes: make([]byte, 60), Size: 60})
	c.Insert(k2, Object{Bytes: make([]byte, 50), Size: 50})
	c.Insert(k3, Object{Bytes: make([]byte, 40), Size: 40})

	_, ok := c.Get(k1)
	assert.False(t, ok, "k1 should have been evicted")

	_, ok = c.Get(k2)
	assert.True(t, ok)
	_, ok = c.Get(k3)
	assert.True(t, ok)

	assert.Equal(t, uint64(90), c.SizeBytes())
}

func TestTooLargeObjectNeverInserted(t *testing.T) {
	c := New(100, time.Minute)
	key := Key{BucketID: "b", Path: "big"}

	c.Insert(key, Object{Bytes: make([]byte, 500), Size: 500})

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), c.Len())
}

func TestExpiryIsLazy(t *testing.T) {
	c := New(1000, time.Minute)
	current := time.Unix(0, 0)
	c.now = func() time.Time { return current }

	key := Key{BucketID: "b", Path: "a"}
	c.Insert(key, Object{Bytes: []byte("x"), Size: 1})

	current = current.Add(61 * time.Second)
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), c.SizeBytes())
}

func TestAccessPromotesToMostRecentlyUsed(t *testing.T) {
	c := New(100, time.Minute)
	k1 := Key{BucketID: "b", Path: "k1"}
	k2 := Key{BucketID: "b", Path: "k2"}
	k3 := Key{BucketID: "b", Path: "k3"}

	c.Insert(k1, Object{Bytes: make([]byte, 40), Size: 40})
	c.Insert(k2, Object{Bytes: make([]byte, 40), Size: 40})

	// Touch k1 so it becomes most-recently-used; k2 is now the LRU victim.
	_, _ = c.Get(k1)

	c.Insert(k3, Object{Bytes: make([]byte, 40), Size: 40})

	_, ok := c.Get(k2)
	assert.False(t, ok, "k2 should have been evicted as the least recently used")
	_, ok = c.Get(k1)
	assert.True(t, ok)
}

func TestReinsertReplacesExistingEntry(t *testing.T) {
	c := New(100, time.Minute)
	key := Key{BucketID: "b", Path: "k"}

	c.Insert(key, Object{Bytes: make([]byte, 40), Size: 40})
	c.Insert(key, Object{Bytes: make([]byte, 90), Size: 90})

	assert.Equal(t, uint64(90), c.SizeBytes())
	assert.Equal(t, uint64(1), c.Len())
}

func TestZeroMaxBytesNeverRetains(t *testing.T) {
	c := New(0, time.Minute)
	key := Key{BucketID: "b", Path: "k"}
	c.Insert(key, Object{Bytes: []byte("x"), Size: 1})

	_, ok := c.Get(key)
	assert.False(t, ok)
}
