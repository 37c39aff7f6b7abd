// Package server exposes an engine's visible tree as a read-only FUSE mount.
package server

import (
	"context"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/internal/util"
	"github.com/brettbedarf/sandfs/vfs"
)

const (
	readableFileMode = 0o444
	hiddenFileMode   = 0o000
)

// Root is the FUSE root inode. The tree is built from the engine's entries
// when the root is added, so a mount shows the engine as it was at mount time.
type Root struct {
	fs.Inode
	engine *vfs.Engine
}

var _ = (fs.NodeOnAdder)((*Root)(nil))

// NewRoot wraps engine in a root inode.
func NewRoot(engine *vfs.Engine) *Root {
	return &Root{engine: engine}
}

// OnAdd populates the tree. Parents always precede their children in
// [vfs.Engine.Entries], so a single pass suffices.
func (r *Root) OnAdd(ctx context.Context) {
	logger := util.GetLogger("FuseServer")
	dirs := map[string]*fs.Inode{vfs.RootPath: &r.Inode}

	for _, entry := range r.engine.Entries() {
		if entry.Path == vfs.RootPath {
			continue
		}
		parent, ok := dirs[vfs.Parent(entry.Path)]
		if !ok {
			continue
		}
		name := vfs.Base(entry.Path)

		var child *fs.Inode
		if entry.Dir {
			child = parent.NewPersistentInode(ctx, &fs.Inode{}, fs.StableAttr{Mode: fuse.S_IFDIR})
		} else {
			mode := uint32(hiddenFileMode)
			if entry.Perms.Read {
				mode = readableFileMode
			}
			file := &fs.MemRegularFile{
				Data: []byte(entry.Content),
				Attr: fuse.Attr{Mode: mode},
			}
			child = parent.NewPersistentInode(ctx, file, fs.StableAttr{Mode: fuse.S_IFREG})
		}
		if !parent.AddChild(name, child, false) {
			logger.Warn().Str("path", entry.Path).Msg("Duplicate entry skipped")
			continue
		}
		if entry.Dir {
			dirs[entry.Path] = child
		}
	}
	logger.Debug().Int("dirs", len(dirs)).Msg("Directory tree built")
}

// SandFs mounts a read-only view of an engine.
type SandFs struct {
	cfg    *config.Config
	engine *vfs.Engine
	server *fuse.Server
}

// New creates a SandFs for engine using the mount settings in cfg.
func New(cfg *config.Config, engine *vfs.Engine) *SandFs {
	return &SandFs{cfg: cfg, engine: engine}
}

// Serve mounts the view at mountPoint and returns once the mount is live.
func (s *SandFs) Serve(mountPoint string) error {
	opts := s.cfg.MountOptions
	srv, err := fs.Mount(mountPoint, NewRoot(s.engine), &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:   opts.Name,
			FsName: opts.FsName,
			Debug:  opts.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger: util.NewLogLogger("FuseServer", util.TraceLevel),
		},
	})
	if err != nil {
		return err
	}
	s.server = srv
	logger := util.GetLogger("FuseServer")
	logger.Info().Str("mount", mountPoint).Msg("Mounted read-only view")
	return nil
}

// Wait blocks until the filesystem is unmounted.
func (s *SandFs) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (s *SandFs) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}
