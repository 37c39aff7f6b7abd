package persist

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/sandfs/config"
)

// Memory keeps blobs in process memory. It is safe for concurrent use, which
// matters for saves started with SaveAsync.
type Memory struct {
	blobs *xsync.Map[string, []byte]
}

func NewMemory() *Memory {
	return &Memory{blobs: xsync.NewMap[string, []byte]()}
}

func newMemoryFromOptions(config.PersistenceOptions) (Backend, error) {
	return NewMemory(), nil
}

func (m *Memory) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	m.blobs.Store(key, slices.Clone(blob))
	return nil
}

func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	blob, ok := m.blobs.Load(key)
	if !ok {
		return nil, notFound(key)
	}
	return slices.Clone(blob), nil
}

func (m *Memory) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	m.blobs.Delete(key)
	return nil
}

// Len reports how many keys are stored.
func (m *Memory) Len() int {
	return m.blobs.Size()
}
