package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"cachegate/internal/store"
)

// MockStore is a testify mock of store.Store, following the pattern of the
// hand-written mocks elsewhere in the codebase rather than a generated
// mocking framework.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, path string) (store.Result, error) {
	args := m.Called(ctx, path)
	res, _ := args.Get(0).(store.Result)
	return res, args.Error(1)
}

func (m *MockStore) Head(ctx context.Context, path string) (store.Metadata, error) {
	args := m.Called(ctx, path)
	meta, _ := args.Get(0).(store.Metadata)
	return meta, args.Error(1)
}

func (m *MockStore) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, path, r, size, contentType)
	return args.Error(0)
}
