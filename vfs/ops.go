package vfs

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Create makes an empty file, or an empty directory for a directory-form
// path. Missing ancestors are created first, one level at a time; ancestors
// created before a failure are kept.
func (e *Engine) Create(path string) error {
	p, err := e.canon(OpCreate, path)
	if err != nil {
		return e.record(OpCreate, err)
	}
	return e.record(OpCreate, e.create(p))
}

func (e *Engine) create(p string) error {
	if p == RootPath || p == RAMPath {
		return newError(OpCreate, p, KindSystemProtected, "")
	}
	if e.store.exists(p) || e.store.exists(Counterpart(p)) {
		return newError(OpCreate, p, KindCollision, "")
	}

	parent := Parent(p)
	if !e.store.exists(parent) {
		if err := e.create(parent); err != nil {
			return err
		}
	} else if !e.visible(parent) {
		return newError(OpCreate, p, KindHidden, "parent "+parent+" is hidden")
	}
	if !e.hasPermission(parent, ActionCreate) {
		return newError(OpCreate, p, KindPermissionDenied, "create")
	}
	if !e.canAccommodate(parent, 0) {
		return newError(OpCreate, p, KindQuotaExceeded, "")
	}
	if e.volumeFull(p, 1) {
		return newError(OpCreate, p, KindNodeLimitExceeded, fmt.Sprintf("limit %d", e.cfg.NodeLimit))
	}

	if IsDirPath(p) {
		e.store.put(p, newDir(DefaultPerms()))
	} else {
		e.store.put(p, newFile("", DefaultPerms()))
	}
	e.logger.Debug().Str("path", p).Msg("Created node")
	return nil
}

// Read returns the content of a file.
func (e *Engine) Read(path string) (string, error) {
	p, err := e.canon(OpRead, path)
	if err != nil {
		return "", e.record(OpRead, err)
	}
	p = e.resolveForm(p)
	n, err := e.lookup(OpRead, p)
	if err != nil {
		return "", e.record(OpRead, err)
	}
	if n.IsDir() {
		return "", e.record(OpRead, newError(OpRead, p, KindIsDirectory, ""))
	}
	if !n.Perms.Read {
		return "", e.record(OpRead, newError(OpRead, p, KindPermissionDenied, "read"))
	}
	e.lastRead = p
	e.wasRead = true
	return n.Content, e.record(OpRead, nil)
}

// Write replaces the content of a file, creating it and its ancestors when missing.
func (e *Engine) Write(path, content string) error {
	p, err := e.canon(OpWrite, path)
	if err != nil {
		return e.record(OpWrite, err)
	}
	return e.record(OpWrite, e.write(p, content))
}

func (e *Engine) write(p, content string) error {
	if IsDirPath(p) || e.store.exists(Counterpart(p)) {
		return newError(OpWrite, p, KindIsDirectory, "")
	}
	if !e.store.exists(p) {
		if err := e.create(p); err != nil {
			return err
		}
	}

	n, _ := e.store.get(p)
	if !e.visible(p) {
		return newError(OpWrite, p, KindHidden, "")
	}
	if !n.Perms.Write {
		return newError(OpWrite, p, KindPermissionDenied, "write")
	}
	delta := int64(len(content)) - n.Size()
	if !e.canAccommodate(Parent(p), delta) {
		return newError(OpWrite, p, KindQuotaExceeded, fmt.Sprintf("%d more bytes", delta))
	}

	n.Content = content
	e.lastWrite = p
	e.wasWritten = true
	e.logger.Debug().Str("path", p).Int("bytes", len(content)).Msg("Wrote file")
	return nil
}

// Delete moves path into the trash, or removes it permanently when it is
// already inside the trash.
func (e *Engine) Delete(path string) error {
	p, err := e.canon(OpDelete, path)
	if err != nil {
		return e.record(OpDelete, err)
	}
	return e.record(OpDelete, e.delete(e.resolveForm(p)))
}

func (e *Engine) delete(p string) error {
	if isSystemRoot(p) {
		return newError(OpDelete, p, KindSystemProtected, "")
	}
	if !e.store.exists(p) {
		return newError(OpDelete, p, KindNotFound, "")
	}
	if !e.hasPermission(p, ActionDelete) {
		return newError(OpDelete, p, KindPermissionDenied, "delete")
	}

	if strings.HasPrefix(p, TrashPath) {
		e.store.removeSubtree(p)
		e.logger.Info().Str("path", p).Msg("Permanently deleted")
		return nil
	}

	dst := e.trashName(p)
	if err := e.copyTree(OpDelete, p, dst); err != nil {
		return err
	}
	e.store.removeSubtree(p)
	e.logger.Info().Str("path", p).Str("trash", dst).Msg("Moved to trash")
	return nil
}

// trashName builds a timestamp qualified destination inside the trash.
func (e *Engine) trashName(p string) string {
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), Base(p))
	dst := TrashPath + name
	if e.store.exists(dst) || e.store.exists(AsDir(dst)) {
		dst += "_" + uuid.NewString()[:8]
	}
	if IsDirPath(p) {
		dst = AsDir(dst)
	}
	return dst
}

// Copy duplicates src, and its whole subtree for a directory, to dst.
// Copies take their permissions from their new parent.
func (e *Engine) Copy(src, dst string) error {
	s, err := e.canon(OpCopy, src)
	if err != nil {
		return e.record(OpCopy, err)
	}
	d, err := e.canon(OpCopy, dst)
	if err != nil {
		return e.record(OpCopy, err)
	}
	return e.record(OpCopy, e.copy(e.resolveForm(s), d))
}

func (e *Engine) copy(src, dst string) error {
	n, err := e.lookup(OpCopy, src)
	if err != nil {
		return err
	}
	if !n.Perms.Read {
		return newError(OpCopy, src, KindPermissionDenied, "read")
	}
	return e.copyTree(OpCopy, src, matchForm(dst, n))
}

// matchForm puts p in the same file/directory form as n.
func matchForm(p string, n *Node) string {
	if n.IsDir() {
		return AsDir(p)
	}
	return AsFile(p)
}

// copyTree copies src's subtree to dst without checking src's own
// capabilities; callers do that.
func (e *Engine) copyTree(op, src, dst string) error {
	if dst == RootPath || dst == RAMPath {
		return newError(op, dst, KindSystemProtected, "")
	}
	if IsDirPath(src) && strings.HasPrefix(dst, src) {
		return newError(op, dst, KindCollision, "destination inside source")
	}
	if e.store.exists(dst) || e.store.exists(Counterpart(dst)) {
		return newError(op, dst, KindCollision, "")
	}
	if parent := Parent(dst); e.store.exists(parent) && !e.visible(parent) {
		return newError(op, dst, KindHidden, "parent "+parent+" is hidden")
	}
	if !e.hasPermission(dst, ActionCreate) {
		return newError(op, dst, KindPermissionDenied, "create")
	}

	paths := e.store.subtree(src)
	var delta int64
	for _, sp := range paths {
		n, _ := e.store.get(sp)
		delta += n.Size()
	}
	parent := Parent(dst)
	if !e.canAccommodate(parent, delta) {
		return newError(op, dst, KindQuotaExceeded, fmt.Sprintf("%d more bytes", delta))
	}
	if e.volumeFull(dst, len(paths)+e.missingAncestors(dst)) {
		return newError(op, dst, KindNodeLimitExceeded, fmt.Sprintf("limit %d", e.cfg.NodeLimit))
	}

	// Fall back to defaults when the new parent does not exist yet, so a
	// copy never inherits hiding by accident.
	inherited := DefaultPerms()
	if pn, ok := e.store.get(parent); ok {
		inherited = pn.Perms
	} else if err := e.create(parent); err != nil {
		return err
	}

	for _, sp := range paths {
		sn, _ := e.store.get(sp)
		np := dst + strings.TrimPrefix(sp, src)
		perms := inherited
		if pn, ok := e.store.get(Parent(np)); ok && np != dst {
			perms = pn.Perms
		}
		e.store.put(np, &Node{Type: sn.Type, Content: sn.Content, Perms: perms, Limit: sn.Limit})
	}
	e.logger.Debug().Str("src", src).Str("dst", dst).Int("nodes", len(paths)).Msg("Copied")
	return nil
}

// Rename moves src to dst. Within a volume keys are rewritten in place;
// across volumes it copies and then deletes the source.
func (e *Engine) Rename(src, dst string) error {
	s, err := e.canon(OpRename, src)
	if err != nil {
		return e.record(OpRename, err)
	}
	d, err := e.canon(OpRename, dst)
	if err != nil {
		return e.record(OpRename, err)
	}
	return e.record(OpRename, e.rename(e.resolveForm(s), d))
}

func (e *Engine) rename(src, dst string) error {
	if isSystemRoot(src) {
		return newError(OpRename, src, KindSystemProtected, "")
	}
	n, err := e.lookup(OpRename, src)
	if err != nil {
		return err
	}
	dst = matchForm(dst, n)
	if dst == src {
		return nil
	}

	if isVolatile(src) != isVolatile(dst) {
		if !e.hasPermission(src, ActionDelete) {
			return newError(OpRename, src, KindPermissionDenied, "delete")
		}
		if err := e.copy(src, dst); err != nil {
			return err
		}
		if err := e.delete(src); err != nil {
			e.store.removeSubtree(dst)
			return err
		}
		return nil
	}

	if dst == RootPath || dst == RAMPath {
		return newError(OpRename, dst, KindSystemProtected, "")
	}
	if !n.Perms.Delete {
		return newError(OpRename, src, KindPermissionDenied, "delete")
	}
	if IsDirPath(src) && strings.HasPrefix(dst, src) {
		return newError(OpRename, dst, KindCollision, "destination inside source")
	}
	if e.store.exists(dst) || e.store.exists(Counterpart(dst)) {
		return newError(OpRename, dst, KindCollision, "")
	}
	if parent := Parent(dst); e.store.exists(parent) && !e.visible(parent) {
		return newError(OpRename, dst, KindHidden, "parent "+parent+" is hidden")
	}
	if !e.hasPermission(dst, ActionCreate) {
		return newError(OpRename, dst, KindPermissionDenied, "create")
	}

	paths := e.store.subtree(src)
	nodes := make([]*Node, len(paths))
	var delta int64
	for i, sp := range paths {
		nodes[i], _ = e.store.get(sp)
		delta += nodes[i].Size()
	}
	parent := Parent(dst)
	if !e.canAccommodateExcept(parent, delta, src) {
		return newError(OpRename, dst, KindQuotaExceeded, fmt.Sprintf("%d more bytes", delta))
	}
	if e.volumeFull(dst, e.missingAncestors(dst)) {
		return newError(OpRename, dst, KindNodeLimitExceeded, fmt.Sprintf("limit %d", e.cfg.NodeLimit))
	}
	if !e.store.exists(parent) {
		if err := e.create(parent); err != nil {
			return err
		}
	}

	for i := len(paths) - 1; i >= 0; i-- {
		e.store.remove(paths[i])
	}
	for i, sp := range paths {
		e.store.put(dst+strings.TrimPrefix(sp, src), nodes[i])
	}
	e.logger.Debug().Str("src", src).Str("dst", dst).Int("nodes", len(paths)).Msg("Renamed")
	return nil
}

// Exists reports whether path names a visible node in either form.
func (e *Engine) Exists(path string) bool {
	p, err := e.canon(OpStat, path)
	if err != nil {
		_ = e.record(OpStat, err)
		return false
	}
	return e.visible(e.resolveForm(p))
}

// IsDir reports whether path names a visible directory.
func (e *Engine) IsDir(path string) bool {
	return e.isType(path, DirNode)
}

// IsFile reports whether path names a visible file.
func (e *Engine) IsFile(path string) bool {
	return e.isType(path, FileNode)
}

func (e *Engine) isType(path string, t NodeType) bool {
	p, ok := Canonicalize(path)
	if !ok {
		return false
	}
	p = e.resolveForm(p)
	n, ok := e.store.get(p)
	return ok && n.Type == t && e.visible(p)
}

// Name returns the last segment of path.
func (e *Engine) Name(path string) (string, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return "", e.record(OpStat, err)
	}
	return Base(p), nil
}

// Dir returns the directory containing path, empty for root.
func (e *Engine) Dir(path string) (string, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return "", e.record(OpStat, err)
	}
	return Parent(p), nil
}
