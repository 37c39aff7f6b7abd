package vfs

import "github.com/brettbedarf/sandfs/internal/util"

// linkKind distinguishes children a volume owns from the cross-volume mount link.
type linkKind uint8

const (
	ownedChild linkKind = iota
	virtualMountLink
)

// volume is one isolated namespace: a flat path to node map plus an index of
// direct children per directory.
type volume struct {
	name     string
	root     string
	nodes    map[string]*Node
	children map[string]map[string]linkKind
}

func newVolume(name, root string) *volume {
	v := &volume{
		name:     name,
		root:     root,
		nodes:    make(map[string]*Node),
		children: make(map[string]map[string]linkKind),
	}
	v.nodes[root] = newDir(DefaultPerms())
	return v
}

func (v *volume) count() int {
	return len(v.nodes)
}

func (v *volume) link(parent, child string, kind linkKind) {
	set, ok := v.children[parent]
	if !ok {
		set = make(map[string]linkKind)
		v.children[parent] = set
	}
	set[child] = kind
}

func (v *volume) unlink(parent, child string) {
	set, ok := v.children[parent]
	if !ok {
		return
	}
	delete(set, child)
	if len(set) == 0 {
		delete(v.children, parent)
	}
}

// sortedChildren returns the direct children of dir in lexical order.
func (v *volume) sortedChildren(dir string) []string {
	return util.SortedKeys(v.children[dir])
}

// bytes sums the content length of every file in the volume.
func (v *volume) bytes() int64 {
	var total int64
	for _, n := range v.nodes {
		total += n.Size()
	}
	return total
}
