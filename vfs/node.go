package vfs

import "strings"

// NodeType tags a node as a file or a directory.
type NodeType string

const (
	FileNode NodeType = "file"
	DirNode  NodeType = "dir"
)

// Unlimited is the quota limit of a directory without a byte ceiling.
const Unlimited int64 = -1

// Action is one of the six capability bits a node carries.
type Action uint8

const (
	ActionCreate Action = iota
	ActionDelete
	ActionSee
	ActionRead
	ActionWrite
	ActionControl
)

// Actions lists every capability in canonical order.
var Actions = [...]Action{ActionCreate, ActionDelete, ActionSee, ActionRead, ActionWrite, ActionControl}

var actionNames = [...]string{"create", "delete", "see", "read", "write", "control"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction resolves a capability name, case-insensitively.
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// Perms is the fixed set of capability bits of a node.
type Perms struct {
	Create  bool `json:"create"`
	Delete  bool `json:"delete"`
	See     bool `json:"see"`
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Control bool `json:"control"`
}

// DefaultPerms grants everything.
func DefaultPerms() Perms {
	return Perms{Create: true, Delete: true, See: true, Read: true, Write: true, Control: true}
}

func (p *Perms) bit(a Action) *bool {
	switch a {
	case ActionCreate:
		return &p.Create
	case ActionDelete:
		return &p.Delete
	case ActionSee:
		return &p.See
	case ActionRead:
		return &p.Read
	case ActionWrite:
		return &p.Write
	case ActionControl:
		return &p.Control
	}
	return nil
}

// Has reports whether action a is granted.
func (p Perms) Has(a Action) bool {
	b := p.bit(a)
	return b != nil && *b
}

// Set grants or revokes action a.
func (p *Perms) Set(a Action, v bool) {
	if b := p.bit(a); b != nil {
		*b = v
	}
}

// Granted returns the names of the granted actions.
func (p Perms) Granted() []string {
	out := make([]string, 0, len(Actions))
	for _, a := range Actions {
		if p.Has(a) {
			out = append(out, a.String())
		}
	}
	return out
}

// Node is a single filesystem entry. Content is only meaningful for files and
// Limit only for directories.
type Node struct {
	Type    NodeType
	Content string
	Perms   Perms
	Limit   int64
}

func newFile(content string, perms Perms) *Node {
	return &Node{Type: FileNode, Content: content, Perms: perms, Limit: Unlimited}
}

func newDir(perms Perms) *Node {
	return &Node{Type: DirNode, Perms: perms, Limit: Unlimited}
}

func (n *Node) IsDir() bool { return n.Type == DirNode }

// Size is the byte length of a file's content; directories report 0.
func (n *Node) Size() int64 {
	if n.IsDir() {
		return 0
	}
	return int64(len(n.Content))
}
