package vfs

import (
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/brettbedarf/sandfs/internal/util"
)

// snapshotJSON sorts map keys so exports are stable.
var snapshotJSON = sonic.ConfigStd

// Snapshot is the exported form of the persistent volume.
type Snapshot struct {
	Version string                   `json:"version"`
	FS      map[string]SnapshotEntry `json:"fs"`
}

// SnapshotEntry is one node of a [Snapshot]. A nil Content marks a directory.
type SnapshotEntry struct {
	Content *string `json:"content"`
	Perms   Perms   `json:"perms"`
	Limit   int64   `json:"limit"`
}

// Export serialises the persistent volume. The volatile volume is never included.
func (e *Engine) Export() (string, error) {
	data, err := e.exportBytes()
	if err != nil {
		return "", e.record(OpExport, err)
	}
	return string(data), e.record(OpExport, nil)
}

func (e *Engine) exportBytes() ([]byte, error) {
	data, err := snapshotJSON.Marshal(e.snapshot())
	if err != nil {
		return nil, wrapError(OpExport, "", KindInvalidArgument, err)
	}
	return data, nil
}

// snapshot takes a value copy of the persistent volume.
func (e *Engine) snapshot() *Snapshot {
	snap := &Snapshot{Version: Version, FS: make(map[string]SnapshotEntry, e.store.disk.count())}
	for p, n := range e.store.disk.nodes {
		entry := SnapshotEntry{Perms: n.Perms, Limit: n.Limit}
		if !n.IsDir() {
			entry.Content = util.Pointer(n.Content)
		}
		snap.FS[p] = entry
	}
	return snap
}

// Import replaces the persistent volume with a snapshot. Needs delete on root.
// Entries with a bad shape, orphaned entries and entries under /RAM/ are
// skipped. Malformed input leaves both volumes untouched; once the snapshot
// parses the volatile volume is reset whether or not the import completes.
func (e *Engine) Import(text string) error {
	return e.record(OpImport, e.importSnapshot([]byte(text)))
}

func (e *Engine) importSnapshot(data []byte) error {
	if !e.hasPermission(RootPath, ActionDelete) {
		return newError(OpImport, RootPath, KindPermissionDenied, "delete")
	}

	var doc map[string]any
	if err := snapshotJSON.Unmarshal(data, &doc); err != nil {
		return wrapError(OpImport, "", KindImportError, err)
	}
	entries, ok := doc["fs"].(map[string]any)
	if !ok {
		return newError(OpImport, "", KindImportError, "missing fs object")
	}
	if _, ok := entries[RootPath]; !ok {
		return newError(OpImport, "", KindImportError, "missing root entry")
	}

	e.store.resetRAM()

	vol, skipped, err := e.buildVolume(entries)
	if err != nil {
		return err
	}
	e.store.disk = vol
	e.store.addChild(RAMPath)
	e.logger.Info().Int("nodes", vol.count()).Int("skipped", skipped).Msg("Snapshot imported")
	return nil
}

// buildVolume turns decoded snapshot entries into a fresh persistent volume.
func (e *Engine) buildVolume(entries map[string]any) (*volume, int, error) {
	vol := newVolume(persistentVolume, RootPath)
	skipped := 0

	// Sorted keys put every parent before its children.
	for _, key := range util.SortedKeys(entries) {
		if key == RootPath {
			continue
		}
		node, ok := decodeEntry(entries[key])
		canon, valid := Canonicalize(key)
		switch {
		case !ok, !valid, canon != key, isVolatile(AsDir(key)), key == AsFile(TrashPath),
			IsDirPath(key) != node.IsDir(),
			vol.nodes[Counterpart(key)] != nil,
			vol.nodes[Parent(key)] == nil:
			skipped++
			continue
		}
		if vol.count() >= e.cfg.NodeLimit {
			return nil, skipped, newError(OpImport, key, KindImportError, fmt.Sprintf("node limit %d exceeded", e.cfg.NodeLimit))
		}
		vol.nodes[key] = node
		vol.link(Parent(key), key, ownedChild)
	}

	// Root always comes back with defaults and no limit.
	root := vol.nodes[RootPath]
	root.Perms = DefaultPerms()
	root.Limit = Unlimited

	if trash, ok := vol.nodes[TrashPath]; ok {
		trash.Perms = DefaultPerms()
	} else {
		vol.nodes[TrashPath] = newDir(DefaultPerms())
		vol.link(RootPath, TrashPath, ownedChild)
	}
	return vol, skipped, nil
}

// decodeEntry validates one {content, perms, limit} object.
func decodeEntry(raw any) (*Node, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	var node *Node
	switch c := obj["content"].(type) {
	case nil:
		node = newDir(DefaultPerms())
	case string:
		node = newFile(c, DefaultPerms())
	default:
		return nil, false
	}

	perms, ok := obj["perms"].(map[string]any)
	if !ok {
		return nil, false
	}
	for _, a := range Actions {
		v, ok := perms[a.String()].(bool)
		if !ok {
			return nil, false
		}
		node.Perms.Set(a, v)
	}

	if rawLimit, present := obj["limit"]; present {
		f, ok := rawLimit.(float64)
		if !ok || f != math.Trunc(f) || f < float64(Unlimited) {
			return nil, false
		}
		node.Limit = int64(f)
	}
	return node, true
}
