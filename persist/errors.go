package persist

import (
	jmerrors "github.com/jmgilman/go/errors"
)

// The engine classifies backend failures by these codes.

func notFound(key string) error {
	return jmerrors.Newf(jmerrors.CodeNotFound, "no snapshot stored under %q", key)
}

func unavailable(err error, msg string) error {
	return jmerrors.Wrap(err, jmerrors.CodeUnavailable, msg)
}

// cancelled reports a call abandoned by its context. It does not mark the
// backend unavailable.
func cancelled(err error) error {
	return jmerrors.Wrap(err, jmerrors.CodeExecutionFailed, "call cancelled")
}

func writeFailed(err error, msg string) error {
	return jmerrors.Wrap(err, jmerrors.CodeForbidden, msg)
}

func isNotFound(err error) bool {
	return err != nil && jmerrors.GetCode(err) == jmerrors.CodeNotFound
}
