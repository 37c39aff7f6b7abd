// Package persist holds the snapshot storage backends an engine can save
// through, and a registry that builds them from configuration.
package persist

import (
	"fmt"
	"strings"
	"sync"

	jmerrors "github.com/jmgilman/go/errors"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/vfs"
)

// Backend is the key value capability snapshots are stored through.
type Backend = vfs.Backend

// Factory builds a backend from persistence options.
type Factory func(opts config.PersistenceOptions) (Backend, error)

// Registry maps backend kinds to their factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register ties a factory to a backend kind. The first registration of a kind wins.
func (r *Registry) Register(kind string, f Factory) {
	kind = normalizeKind(kind)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return
	}
	r.factories[kind] = f
}

// Kinds returns the registered backend kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// New builds the backend selected by opts.Backend, wrapping it with zstd
// compression when opts.Compress is set.
func (r *Registry) New(opts config.PersistenceOptions) (Backend, error) {
	kind := normalizeKind(opts.Backend)
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, jmerrors.Newf(jmerrors.CodeInvalidConfig, "no backend registered for %q", opts.Backend)
	}

	b, err := f(opts)
	if err != nil {
		return nil, jmerrors.Wrap(err, jmerrors.CodeInvalidConfig, fmt.Sprintf("failed to create %s backend", kind))
	}
	if opts.Compress {
		return Compressed(b)
	}
	return b, nil
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(kind string, f Factory) {
	defaultRegistry.Register(kind, f)
}

// New builds a backend from the default registry.
// All expected kinds should be registered with [Register] or
// [RegisterBuiltins] before calling this function.
func New(opts config.PersistenceOptions) (Backend, error) {
	return defaultRegistry.New(opts)
}
