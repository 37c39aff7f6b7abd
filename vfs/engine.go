package vfs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/internal/metrics"
	"github.com/brettbedarf/sandfs/internal/util"
)

// Version is reported by the engine and stamped into snapshots.
const Version = "1.0.0"

// Backend is the persistence capability the engine saves snapshots through.
// Implementations live in the persist package.
type Backend interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
}

// Host delivers lifecycle signals from the embedding runtime.
type Host interface {
	OnProjectStart(fn func())
}

// ClearScope selects what [Engine.Clear] wipes.
type ClearScope string

const (
	ClearAll   ClearScope = "all"
	ClearTrash ClearScope = "trash"
	ClearRAM   ClearScope = "ram"
)

// ops that change volume contents; metrics are refreshed after each success.
var mutatingOps = map[string]bool{
	OpCreate: true, OpWrite: true, OpDelete: true, OpCopy: true, OpRename: true,
	OpClear: true, OpImport: true, OpImportFile: true, OpLoad: true,
}

// Engine owns both volumes and every piece of per-instance state. It is not
// safe for concurrent use; callers serialise access.
type Engine struct {
	cfg     *config.Config
	id      string
	store   *store
	metrics *metrics.Metrics

	base    zerolog.Logger
	logger  zerolog.Logger
	logging bool

	lastErr    *Error
	lastRead   string
	lastWrite  string
	wasRead    bool
	wasWritten bool

	// hooked guards the single project-start subscription.
	hooked bool

	namespace string
	backend   Backend
}

// New creates an engine with an empty persistent volume (root and trash) and
// an empty volatile volume. A nil cfg uses the defaults.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	id := uuid.New().String()
	base := util.GetLogger("Engine").With().Str("engine", id).Logger()

	e := &Engine{
		cfg:       cfg,
		id:        id,
		store:     newStore(),
		metrics:   metrics.New(),
		base:      base,
		namespace: cfg.Persistence.Namespace,
	}
	e.SetLogging(cfg.Logging)
	e.refreshMetrics()
	return e
}

// ID identifies this engine instance in logs.
func (e *Engine) ID() string { return e.id }

// Metrics exposes the engine's Prometheus collectors.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Version reports the engine version.
func (e *Engine) Version() string { return Version }

// SetLogging turns operation logging on or off.
func (e *Engine) SetLogging(on bool) {
	e.logging = on
	if on {
		e.logger = e.base
	} else {
		e.logger = zerolog.Nop()
	}
}

func (e *Engine) LoggingEnabled() bool { return e.logging }

// AttachHost subscribes to the host's project-start signal. Only the first
// call per engine subscribes; it reports whether this call did.
func (e *Engine) AttachHost(h Host) bool {
	if e.hooked {
		return false
	}
	e.hooked = true
	h.OnProjectStart(e.HandleProjectStart)
	return true
}

// HandleProjectStart resets the volatile volume.
func (e *Engine) HandleProjectStart() {
	e.store.resetRAM()
	e.refreshMetrics()
	e.logger.Debug().Msg("Project start: volatile volume reset")
}

// LastError returns the most recent failure, or nil if none occurred yet.
func (e *Engine) LastError() *Error { return e.lastErr }

// LastRead returns the path of the most recent successful read.
func (e *Engine) LastRead() string { return e.lastRead }

// LastWrite returns the path of the most recent successful write.
func (e *Engine) LastWrite() string { return e.lastWrite }

// WasRead reports whether any read succeeded since the last [Engine.ResetActivity].
func (e *Engine) WasRead() bool { return e.wasRead }

// WasWritten reports whether any write succeeded since the last [Engine.ResetActivity].
func (e *Engine) WasWritten() bool { return e.wasWritten }

func (e *Engine) ResetActivity() {
	e.wasRead = false
	e.wasWritten = false
}

// Clear wipes a scope. ClearAll resets both volumes and needs delete on root,
// ClearTrash permanently empties the trash and ClearRAM resets the volatile volume.
func (e *Engine) Clear(scope ClearScope) error {
	return e.record(OpClear, e.clear(scope))
}

func (e *Engine) clear(scope ClearScope) error {
	switch scope {
	case ClearAll:
		if !e.hasPermission(RootPath, ActionDelete) {
			return newError(OpClear, RootPath, KindPermissionDenied, "delete")
		}
		e.store.resetDisk()
		e.store.resetRAM()
	case ClearTrash:
		if !e.hasPermission(TrashPath, ActionDelete) {
			return newError(OpClear, TrashPath, KindPermissionDenied, "delete")
		}
		for _, child := range e.store.ownedChildren(TrashPath) {
			e.store.removeSubtree(child)
		}
	case ClearRAM:
		e.store.resetRAM()
	default:
		return newError(OpClear, "", KindInvalidArgument, "unknown scope "+string(scope))
	}
	e.logger.Info().Str("scope", string(scope)).Msg("Cleared")
	return nil
}

// record finalises a public operation: failures become the last error and
// every outcome is counted.
func (e *Engine) record(op string, err error) error {
	if err == nil {
		e.metrics.ObserveOp(op, metrics.ResultOK)
		if mutatingOps[op] {
			e.refreshMetrics()
		}
		return nil
	}

	var fsErr *Error
	if !errors.As(err, &fsErr) {
		fsErr = &Error{Op: op, Kind: KindNone, Err: err}
	}
	e.lastErr = fsErr
	e.metrics.ObserveOp(op, fsErr.Kind.String())
	e.logger.Debug().Err(err).Str("op", op).Str("path", fsErr.Path).Stringer("kind", fsErr.Kind).Msg("Operation failed")
	return err
}

// Reject records a failure raised by a caller before any engine operation
// ran, such as an unknown command, so it shows up as the last error. Errors
// that already carry a kind came from the engine and are returned unchanged.
func (e *Engine) Reject(op string, err error) error {
	if err == nil {
		return nil
	}
	var fsErr *Error
	if errors.As(err, &fsErr) {
		return err
	}
	kind := KindNone
	if errors.Is(err, ErrInvalidArgument) {
		kind = KindInvalidArgument
	}
	return e.record(op, &Error{Op: op, Kind: kind, Err: err})
}

func (e *Engine) refreshMetrics() {
	for _, vol := range []*volume{e.store.disk, e.store.ram} {
		e.metrics.SetVolume(vol.name, vol.count(), vol.bytes())
	}
}

// canon canonicalizes a path argument.
func (e *Engine) canon(op, input string) (string, error) {
	p, ok := Canonicalize(input)
	if !ok {
		return "", newError(op, input, KindInvalidPath, "")
	}
	return p, nil
}

// resolveForm returns p when it exists, otherwise its counterpart form when
// that exists, otherwise p unchanged.
func (e *Engine) resolveForm(p string) string {
	if e.store.exists(p) {
		return p
	}
	if c := Counterpart(p); e.store.exists(c) {
		return c
	}
	return p
}

// visible reports whether p exists and neither it nor any ancestor is hidden.
func (e *Engine) visible(p string) bool {
	n, ok := e.store.get(p)
	if !ok || !n.Perms.See {
		return false
	}
	for a := Parent(p); a != ""; a = Parent(a) {
		if n, ok := e.store.get(a); ok && !n.Perms.See {
			return false
		}
	}
	return true
}

// lookup resolves an existing, visible node for a read-path operation.
func (e *Engine) lookup(op, p string) (*Node, error) {
	n, ok := e.store.get(p)
	if !ok {
		return nil, newError(op, p, KindNotFound, "")
	}
	if !e.visible(p) {
		return nil, newError(op, p, KindHidden, "")
	}
	return n, nil
}

// isSystemRoot reports whether p is one of the always visible, always
// controllable roots.
func isSystemRoot(p string) bool {
	return p == RootPath || p == RAMPath || p == TrashPath
}

// volumeFull reports whether inserting n more nodes into p's volume would
// exceed the node cap.
func (e *Engine) volumeFull(p string, n int) bool {
	return e.store.resolve(p).count()+n > e.cfg.NodeLimit
}

// missingAncestors counts the ancestors of p that create would have to add.
func (e *Engine) missingAncestors(p string) int {
	n := 0
	for a := Parent(p); a != "" && !e.store.exists(a); a = Parent(a) {
		n++
	}
	return n
}
