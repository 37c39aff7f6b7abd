package vfs

import (
	"slices"
	"strings"
)

const (
	persistentVolume = "persistent"
	volatileVolume   = "volatile"
)

// store holds the persistent volume and the volatile volume mounted at /RAM/.
// The mount is indexed as a child of / in the persistent volume but its node
// lives only in the volatile volume.
type store struct {
	disk *volume
	ram  *volume
}

func newStore() *store {
	s := &store{}
	s.resetDisk()
	s.resetRAM()
	return s
}

// isVolatile reports whether p lives on the volatile volume.
func isVolatile(p string) bool {
	return strings.HasPrefix(p, RAMPath)
}

func (s *store) resolve(p string) *volume {
	if isVolatile(p) {
		return s.ram
	}
	return s.disk
}

func (s *store) get(p string) (*Node, bool) {
	n, ok := s.resolve(p).nodes[p]
	return n, ok
}

func (s *store) exists(p string) bool {
	_, ok := s.get(p)
	return ok
}

// put inserts or replaces a node and indexes it under its parent.
func (s *store) put(p string, n *Node) {
	s.resolve(p).nodes[p] = n
	s.addChild(p)
}

// remove drops a single node and its index entries.
func (s *store) remove(p string) {
	vol := s.resolve(p)
	delete(vol.nodes, p)
	delete(vol.children, p)
	s.removeChild(p)
}

func (s *store) addChild(p string) {
	if p == RAMPath {
		s.disk.link(RootPath, RAMPath, virtualMountLink)
		return
	}
	if parent := Parent(p); parent != "" {
		s.resolve(p).link(parent, p, ownedChild)
	}
}

func (s *store) removeChild(p string) {
	if p == RAMPath {
		s.disk.unlink(RootPath, RAMPath)
		return
	}
	if parent := Parent(p); parent != "" {
		s.resolve(p).unlink(parent, p)
	}
}

// children returns the direct children of dir, mount link included, in lexical order.
func (s *store) children(dir string) []string {
	return s.resolve(dir).sortedChildren(dir)
}

// ownedChildren is like children but never crosses into the other volume.
func (s *store) ownedChildren(dir string) []string {
	vol := s.resolve(dir)
	var out []string
	for _, c := range vol.sortedChildren(dir) {
		if vol.children[dir][c] == ownedChild {
			out = append(out, c)
		}
	}
	return out
}

// subtree returns p and all its descendants depth first, parents before
// children. It uses an explicit stack so deep trees cannot exhaust the call stack.
func (s *store) subtree(p string) []string {
	if !s.exists(p) {
		return nil
	}
	var out []string
	stack := []string{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)

		kids := s.ownedChildren(cur)
		slices.Reverse(kids)
		stack = append(stack, kids...)
	}
	return out
}

// removeSubtree deletes p and all its descendants.
func (s *store) removeSubtree(p string) {
	paths := s.subtree(p)
	for i := len(paths) - 1; i >= 0; i-- {
		s.remove(paths[i])
	}
}

// resetRAM replaces the volatile volume with a fresh root and relinks the mount.
func (s *store) resetRAM() {
	s.ram = newVolume(volatileVolume, RAMPath)
	s.addChild(RAMPath)
}

// resetDisk replaces the persistent volume with a fresh root and trash.
func (s *store) resetDisk() {
	s.disk = newVolume(persistentVolume, RootPath)
	s.put(TrashPath, newDir(DefaultPerms()))
	s.addChild(RAMPath)
}
