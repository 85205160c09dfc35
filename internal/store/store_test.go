package store

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct{}

func (fakeStore) Get(ctx context.Context, path string) (Result, error)  { return Result{}, nil }
func (fakeStore) Head(ctx context.Context, path string) (Metadata, error) { return Metadata{}, nil }
func (fakeStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	return nil
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(map[string]Store{"media-s3": fakeStore{}})

	s, err := reg.Lookup("media-s3")
	assert.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRegistryLookupUnknownBucket(t *testing.T) {
	reg := NewRegistry(map[string]Store{"media-s3": fakeStore{}})

	_, err := reg.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownBucket)
}
