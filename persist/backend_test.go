package persist

import (
	"context"
	"testing"

	jmerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/internal/mocks"
	"github.com/brettbedarf/sandfs/vfs"
)

func TestRegister_SingleFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockBackend := &mocks.MockBackend{}
	r.Register("test", func(config.PersistenceOptions) (Backend, error) { return mockBackend, nil })

	b, err := r.New(config.PersistenceOptions{Backend: "test"})
	require.NoError(t, err)
	assert.Same(t, mockBackend, b)
}

func TestRegister_DuplicateFactory(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	first, second := &mocks.MockBackend{}, &mocks.MockBackend{}
	r.Register("test", func(config.PersistenceOptions) (Backend, error) { return first, nil })
	r.Register("TEST", func(config.PersistenceOptions) (Backend, error) { return second, nil })

	b, err := r.New(config.PersistenceOptions{Backend: " Test "})
	require.NoError(t, err)
	assert.Same(t, first, b)
	assert.Equal(t, []string{"test"}, r.Kinds())
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.New(config.PersistenceOptions{Backend: "nope"})
	require.Error(t, err)
	assert.Equal(t, jmerrors.CodeInvalidConfig, jmerrors.GetCode(err))

	r.Register("broken", func(config.PersistenceOptions) (Backend, error) { return nil, assert.AnError })
	_, err = r.New(config.PersistenceOptions{Backend: "broken"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, jmerrors.CodeInvalidConfig, jmerrors.GetCode(err))
}

func TestNew_Compress(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(MemoryBackendType, newMemoryFromOptions)
	b, err := r.New(config.PersistenceOptions{Backend: MemoryBackendType, Compress: true})
	require.NoError(t, err)
	_, ok := b.(*compressed)
	assert.True(t, ok)
}

func TestRegisterBuiltins(t *testing.T) {
	RegisterBuiltins()

	for _, kind := range []string{MemoryBackendType, BillyBackendType} {
		b, err := New(config.PersistenceOptions{Backend: kind})
		require.NoError(t, err, kind)
		assert.NotNil(t, b)
	}

	_, err := New(config.PersistenceOptions{Backend: MinioBackendType})
	assert.ErrorContains(t, err, "bucket is required")
}

// TestEngineRoundTrip saves through every local backend and loads the
// snapshot into a fresh engine.
func TestEngineRoundTrip(t *testing.T) {
	t.Parallel()

	plain := NewMemory()
	zstdMem, err := Compressed(NewMemory())
	require.NoError(t, err)
	onDisk, err := newBillyFromOptions(config.PersistenceOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	backends := map[string]Backend{
		"memory": plain,
		"billy":  onDisk,
		"zstd":   zstdMem,
	}

	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			cfg := config.NewDefaultConfig()
			cfg.Logging = false

			src := vfs.New(cfg)
			require.NoError(t, src.Write("/docs/readme.md", "# saved"))
			require.NoError(t, src.ConfigurePersistence("project", backend))
			require.NoError(t, src.Save(ctx))

			dst := vfs.New(cfg)
			require.NoError(t, dst.ConfigurePersistence("project", backend))
			require.NoError(t, dst.Load(ctx))
			got, err := dst.Read("/docs/readme.md")
			require.NoError(t, err)
			assert.Equal(t, "# saved", got)

			require.NoError(t, dst.ClearStorage(ctx))
			err = dst.Load(ctx)
			assert.ErrorIs(t, err, vfs.ErrNotFound)
			assert.True(t, dst.PersistenceEnabled(), "a missing snapshot keeps persistence on")
		})
	}
}
