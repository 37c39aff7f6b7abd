package vfs

// hasPermission reports whether action a is allowed on p. For create on a path
// that does not exist yet, the nearest existing ancestor decides.
func (e *Engine) hasPermission(p string, a Action) bool {
	if n, ok := e.store.get(p); ok {
		return n.Perms.Has(a)
	}
	if a != ActionCreate {
		return false
	}
	for anc := Parent(p); anc != ""; anc = Parent(anc) {
		if n, ok := e.store.get(anc); ok {
			return n.Perms.Create
		}
	}
	return false
}

// HasPermission reports whether action a is allowed on path.
func (e *Engine) HasPermission(path string, a Action) (bool, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return false, e.record(OpStat, err)
	}
	return e.hasPermission(e.resolveForm(p), a), nil
}

// ListPermissions returns the names of the actions granted on path.
func (e *Engine) ListPermissions(path string) ([]string, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return []string{}, e.record(OpStat, err)
	}
	n, err := e.lookup(OpStat, e.resolveForm(p))
	if err != nil {
		return []string{}, e.record(OpStat, err)
	}
	return n.Perms.Granted(), nil
}

// SetPermission grants or revokes action a on path. Directories apply the
// change to their whole subtree, but never descend into hidden nodes.
// The caller needs control on the target.
func (e *Engine) SetPermission(path string, a Action, value bool) error {
	p, err := e.canon(OpSetPerm, path)
	if err != nil {
		return e.record(OpSetPerm, err)
	}
	return e.record(OpSetPerm, e.setPermission(e.resolveForm(p), a, value))
}

// pinned reports whether turning off a on p would break the system root guarantees.
func pinned(p string, a Action, value bool) bool {
	return !value && isSystemRoot(p) && (a == ActionSee || a == ActionControl)
}

func (e *Engine) setPermission(p string, a Action, value bool) error {
	n, ok := e.store.get(p)
	if !ok {
		return newError(OpSetPerm, p, KindNotFound, "")
	}
	if pinned(p, a, value) {
		return newError(OpSetPerm, p, KindSystemProtected, a.String()+" cannot be revoked")
	}
	if !e.visible(p) {
		return newError(OpSetPerm, p, KindHidden, "")
	}
	if !n.Perms.Control {
		return newError(OpSetPerm, p, KindPermissionDenied, "control")
	}

	if !n.IsDir() {
		n.Perms.Set(a, value)
		return nil
	}

	changed := 0
	stack := []string{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cn, ok := e.store.get(cur)
		if !ok || !cn.Perms.See {
			continue
		}
		if !pinned(cur, a, value) {
			cn.Perms.Set(a, value)
			changed++
		}
		stack = append(stack, e.store.ownedChildren(cur)...)
	}
	e.logger.Debug().Str("path", p).Stringer("action", a).Bool("value", value).Int("nodes", changed).Msg("Permission updated")
	return nil
}

// RestoreDefaults resets every capability bit of path to granted. It bypasses
// permission checks so a locked or hidden node can always be recovered.
func (e *Engine) RestoreDefaults(path string) error {
	p, err := e.canon(OpRestorePerm, path)
	if err != nil {
		return e.record(OpRestorePerm, err)
	}
	p = e.resolveForm(p)
	n, ok := e.store.get(p)
	if !ok {
		return e.record(OpRestorePerm, newError(OpRestorePerm, p, KindNotFound, ""))
	}
	n.Perms = DefaultPerms()
	return e.record(OpRestorePerm, nil)
}
