package vfs

// Entry is a read-only view of one visible node.
type Entry struct {
	Path    string
	Dir     bool
	Content string
	Perms   Perms
}

// Entries returns every visible node of both volumes in pre-order, parents
// before children. File content is only filled in when the file is readable.
// The returned values are copies.
func (e *Engine) Entries() []Entry {
	var out []Entry
	stack := []string{RootPath}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !e.visible(cur) {
			continue
		}
		n, _ := e.store.get(cur)
		entry := Entry{Path: cur, Dir: n.IsDir(), Perms: n.Perms}
		if !n.IsDir() && n.Perms.Read {
			entry.Content = n.Content
		}
		out = append(out, entry)

		kids := e.store.children(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
