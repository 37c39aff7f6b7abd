package vfs

import (
	"math"
	"strconv"
	"strings"
)

// directorySize sums the content length of every file below p.
func (e *Engine) directorySize(p string) int64 {
	var total int64
	for _, sub := range e.store.subtree(p) {
		if n, ok := e.store.get(sub); ok {
			total += n.Size()
		}
	}
	return total
}

// canAccommodate reports whether delta more bytes fit under p and every one of
// its ancestors. The volatile root is never limited.
func (e *Engine) canAccommodate(p string, delta int64) bool {
	return e.canAccommodateExcept(p, delta, "")
}

// canAccommodateExcept is canAccommodate for a move: ancestors that already
// contain src are skipped since the bytes are already accounted there.
func (e *Engine) canAccommodateExcept(p string, delta int64, src string) bool {
	if delta <= 0 {
		return true
	}
	for anc := p; anc != ""; anc = Parent(anc) {
		if anc == RAMPath {
			break
		}
		n, ok := e.store.get(anc)
		if !ok || !n.IsDir() || n.Limit == Unlimited {
			continue
		}
		if src != "" && strings.HasPrefix(src, anc) {
			continue
		}
		if e.directorySize(anc)+delta > n.Limit {
			return false
		}
	}
	return true
}

// ParseLimit coerces user input to a quota limit: integers >= -1 are kept,
// fractions are truncated, anything else becomes 0.
func ParseLimit(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 {
		return 0
	}
	if f < 0 && f != -1 {
		return 0
	}
	return int64(f)
}

// ClampLimit keeps -1 (unlimited) and non-negative limits, mapping other
// negatives to 0.
func ClampLimit(limit int64) int64 {
	if limit < Unlimited {
		return 0
	}
	return limit
}

// SetLimit sets the byte ceiling of directory path. Needs control, and the
// directory's current contents must already fit.
func (e *Engine) SetLimit(path string, limit int64) error {
	return e.record(OpSetLimit, e.setLimit(path, ClampLimit(limit)))
}

// RemoveLimit makes directory path unlimited again.
func (e *Engine) RemoveLimit(path string) error {
	return e.record(OpSetLimit, e.setLimit(path, Unlimited))
}

func (e *Engine) setLimit(path string, limit int64) error {
	p, err := e.canon(OpSetLimit, path)
	if err != nil {
		return err
	}
	p = e.resolveForm(p)
	n, err := e.lookup(OpSetLimit, p)
	if err != nil {
		return err
	}
	if !n.IsDir() {
		return newError(OpSetLimit, p, KindIsFile, "limits apply to directories")
	}
	if !n.Perms.Control {
		return newError(OpSetLimit, p, KindPermissionDenied, "control")
	}
	if limit != Unlimited {
		if size := e.directorySize(p); size > limit {
			return newError(OpSetLimit, p, KindQuotaExceeded, strconv.FormatInt(size, 10)+" bytes already stored")
		}
	}
	n.Limit = limit
	e.logger.Debug().Str("path", p).Int64("limit", limit).Msg("Limit updated")
	return nil
}

// Limit returns the byte ceiling of path, -1 when unlimited.
func (e *Engine) Limit(path string) (int64, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return 0, e.record(OpStat, err)
	}
	n, err := e.lookup(OpStat, e.resolveForm(p))
	if err != nil {
		return 0, e.record(OpStat, err)
	}
	return n.Limit, nil
}

// Size returns a file's byte length or the total bytes below a directory.
func (e *Engine) Size(path string) (int64, error) {
	p, err := e.canon(OpStat, path)
	if err != nil {
		return 0, e.record(OpStat, err)
	}
	p = e.resolveForm(p)
	n, err := e.lookup(OpStat, p)
	if err != nil {
		return 0, e.record(OpStat, err)
	}
	if n.IsDir() {
		return e.directorySize(p), nil
	}
	return n.Size(), nil
}
