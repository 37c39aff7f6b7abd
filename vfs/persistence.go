package vfs

import (
	"context"
	"strings"

	jmerrors "github.com/jmgilman/go/errors"

	"github.com/brettbedarf/sandfs/internal/metrics"
)

// ConfigurePersistence selects the namespace and backend snapshots are saved
// through. A blank namespace or nil backend disables persistence.
func (e *Engine) ConfigurePersistence(namespace string, backend Backend) error {
	ns := strings.TrimSpace(namespace)
	if ns == "" || backend == nil {
		e.namespace, e.backend = "", nil
		return e.record(OpConfigure, newError(OpConfigure, "", KindNotConfigured, "namespace and backend are required"))
	}
	e.namespace, e.backend = ns, backend
	e.logger.Info().Str("namespace", ns).Msg("Persistence configured")
	return e.record(OpConfigure, nil)
}

// PersistenceEnabled reports whether a namespace and backend are configured.
func (e *Engine) PersistenceEnabled() bool {
	return e.backend != nil && e.namespace != ""
}

// Namespace returns the configured persistence namespace.
func (e *Engine) Namespace() string { return e.namespace }

// Save stores a snapshot of the persistent volume under the namespace.
func (e *Engine) Save(ctx context.Context) error {
	return e.record(OpSave, e.save(ctx))
}

func (e *Engine) save(ctx context.Context) error {
	if !e.PersistenceEnabled() {
		return newError(OpSave, "", KindNotConfigured, "")
	}
	blob, err := e.exportBytes()
	if err != nil {
		return err
	}
	err = e.backendError(OpSave, e.backend.Save(ctx, e.namespace, blob))
	e.degradeOn(err)
	return err
}

// SaveAsync takes the snapshot immediately and hands it to the backend in the
// background. Later mutations do not affect the blob in flight. The returned
// channel yields exactly one result and is then closed. Failures are not
// recorded as the engine's last error.
func (e *Engine) SaveAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	if !e.PersistenceEnabled() {
		done <- newError(OpSave, "", KindNotConfigured, "")
		close(done)
		return done
	}
	blob, err := e.exportBytes()
	if err != nil {
		done <- err
		close(done)
		return done
	}

	backend, ns := e.backend, e.namespace
	logger, m := e.logger, e.metrics
	go func() {
		defer close(done)
		err := classifyBackendError(m, OpSave, ns, backend.Save(ctx, ns, blob))
		if err != nil {
			logger.Warn().Err(err).Str("namespace", ns).Msg("Background save failed")
		}
		done <- err
	}()
	return done
}

// Load replaces the persistent volume with the snapshot stored under the namespace.
func (e *Engine) Load(ctx context.Context) error {
	return e.record(OpLoad, e.load(ctx))
}

func (e *Engine) load(ctx context.Context) error {
	if !e.PersistenceEnabled() {
		return newError(OpLoad, "", KindNotConfigured, "")
	}
	blob, err := e.backend.Load(ctx, e.namespace)
	if err = e.backendError(OpLoad, err); err != nil {
		e.degradeOn(err)
		return err
	}
	return e.importSnapshot(blob)
}

// ClearStorage removes the stored snapshot.
func (e *Engine) ClearStorage(ctx context.Context) error {
	if !e.PersistenceEnabled() {
		return e.record(OpClearStorage, newError(OpClearStorage, "", KindNotConfigured, ""))
	}
	err := e.backendError(OpClearStorage, e.backend.Clear(ctx, e.namespace))
	e.degradeOn(err)
	return e.record(OpClearStorage, err)
}

func (e *Engine) backendError(op string, err error) error {
	return classifyBackendError(e.metrics, op, e.namespace, err)
}

// classifyBackendError maps a backend failure onto an engine error kind using
// its platform error code, and counts the call.
func classifyBackendError(m *metrics.Metrics, op, key string, err error) error {
	if err == nil {
		m.ObservePersist(op, metrics.ResultOK)
		return nil
	}
	kind := KindBackendWriteFailed
	switch jmerrors.GetCode(err) {
	case jmerrors.CodeNotFound:
		kind = KindNotFound
	case jmerrors.CodeUnavailable, jmerrors.CodeNetwork, jmerrors.CodeTimeout:
		kind = KindBackendUnavailable
	}
	m.ObservePersist(op, kind.String())
	return wrapError(op, key, kind, err)
}

// degradeOn drops the backend when it is unavailable so the engine keeps
// working without persistence.
func (e *Engine) degradeOn(err error) {
	if KindOf(err) != KindBackendUnavailable {
		return
	}
	e.logger.Warn().Err(err).Str("namespace", e.namespace).Msg("Persistence backend unavailable, disabling persistence")
	e.backend = nil
}
