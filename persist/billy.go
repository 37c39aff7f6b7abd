package persist

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/brettbedarf/sandfs/config"
)

const snapshotExt = ".snapshot"

// Billy stores each blob as one file on a billy filesystem.
type Billy struct {
	fs billy.Filesystem
}

func NewBilly(fs billy.Filesystem) *Billy {
	return &Billy{fs: fs}
}

// newBillyFromOptions roots the store at opts.Dir, or keeps it in memory when
// no directory is configured.
func newBillyFromOptions(opts config.PersistenceOptions) (Backend, error) {
	if opts.Dir == "" {
		return NewBilly(memfs.New()), nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return NewBilly(osfs.New(opts.Dir)), nil
}

// fileName flattens a namespace into a single file name.
func fileName(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key) + snapshotExt
}

// Save writes to a temporary file first and renames it into place.
func (b *Billy) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	name := fileName(key)
	tmp := name + ".tmp"
	if err := util.WriteFile(b.fs, tmp, blob, 0o644); err != nil {
		return writeFailed(err, "failed to write snapshot file")
	}
	if err := b.fs.Rename(tmp, name); err != nil {
		_ = b.fs.Remove(tmp)
		return writeFailed(err, "failed to move snapshot file into place")
	}
	return nil
}

func (b *Billy) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	data, err := util.ReadFile(b.fs, fileName(key))
	if os.IsNotExist(err) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, unavailable(err, "failed to read snapshot file")
	}
	return data, nil
}

func (b *Billy) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	err := b.fs.Remove(fileName(key))
	if err != nil && !os.IsNotExist(err) {
		return writeFailed(err, "failed to remove snapshot file")
	}
	return nil
}
