package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBackend implements a snapshot persistence backend for testing across packages
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Save(ctx context.Context, key string, blob []byte) error {
	args := m.Called(ctx, key, blob)
	return args.Error(0)
}

func (m *MockBackend) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)

	// Handle function return types (for tests that serve a blob saved earlier)
	if fn, ok := args.Get(0).(func(context.Context, string) []byte); ok {
		return fn(ctx, key), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) Clear(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockHost records the project-start subscription so tests can fire it.
type MockHost struct {
	mock.Mock

	handlers []func()
}

func (m *MockHost) OnProjectStart(fn func()) {
	m.Called(fn)
	m.handlers = append(m.handlers, fn)
}

// Start fires every subscribed handler.
func (m *MockHost) Start() {
	for _, fn := range m.handlers {
		fn()
	}
}
