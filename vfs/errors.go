package vfs

import (
	"errors"
	"fmt"
)

// Kind classifies every failure an engine operation can report.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidPath
	KindInvalidArgument
	KindNotFound
	KindHidden
	KindIsDirectory
	KindIsFile
	KindPermissionDenied
	KindCollision
	KindQuotaExceeded
	KindNodeLimitExceeded
	KindSystemProtected
	KindImportError
	KindEncodingError
	KindBackendUnavailable
	KindBackendWriteFailed
	KindNotConfigured
)

// Sentinel errors, one per kind, so callers can use errors.Is.
var (
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrHidden             = errors.New("hidden")
	ErrIsDirectory        = errors.New("is a directory")
	ErrIsFile             = errors.New("is a file")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCollision          = errors.New("already exists")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrNodeLimitExceeded  = errors.New("node limit exceeded")
	ErrSystemProtected    = errors.New("system path is protected")
	ErrImport             = errors.New("import failed")
	ErrEncoding           = errors.New("malformed base64")
	ErrBackendUnavailable = errors.New("persistence backend unavailable")
	ErrBackendWriteFailed = errors.New("persistence backend rejected write")
	ErrNotConfigured      = errors.New("persistence not configured")
)

var kindSentinels = map[Kind]error{
	KindInvalidPath:        ErrInvalidPath,
	KindInvalidArgument:    ErrInvalidArgument,
	KindNotFound:           ErrNotFound,
	KindHidden:             ErrHidden,
	KindIsDirectory:        ErrIsDirectory,
	KindIsFile:             ErrIsFile,
	KindPermissionDenied:   ErrPermissionDenied,
	KindCollision:          ErrCollision,
	KindQuotaExceeded:      ErrQuotaExceeded,
	KindNodeLimitExceeded:  ErrNodeLimitExceeded,
	KindSystemProtected:    ErrSystemProtected,
	KindImportError:        ErrImport,
	KindEncodingError:      ErrEncoding,
	KindBackendUnavailable: ErrBackendUnavailable,
	KindBackendWriteFailed: ErrBackendWriteFailed,
	KindNotConfigured:      ErrNotConfigured,
}

var kindNames = map[Kind]string{
	KindNone:               "None",
	KindInvalidPath:        "InvalidPath",
	KindInvalidArgument:    "InvalidArgument",
	KindNotFound:           "NotFound",
	KindHidden:             "Hidden",
	KindIsDirectory:        "IsDirectory",
	KindIsFile:             "IsFile",
	KindPermissionDenied:   "PermissionDenied",
	KindCollision:          "Collision",
	KindQuotaExceeded:      "QuotaExceeded",
	KindNodeLimitExceeded:  "NodeLimitExceeded",
	KindSystemProtected:    "SystemProtected",
	KindImportError:        "ImportError",
	KindEncodingError:      "EncodingError",
	KindBackendUnavailable: "BackendUnavailable",
	KindBackendWriteFailed: "BackendWriteFailed",
	KindNotConfigured:      "NotConfigured",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Operation names carried by [Error].
const (
	OpCanonicalize = "canonicalize"
	OpCreate       = "create"
	OpRead         = "read"
	OpWrite        = "write"
	OpDelete       = "delete"
	OpCopy         = "copy"
	OpRename       = "rename"
	OpList         = "list"
	OpGlob         = "glob"
	OpClear        = "clear"
	OpStat         = "stat"
	OpSetPerm      = "set_permission"
	OpRestorePerm  = "restore_permissions"
	OpSetLimit     = "set_limit"
	OpExport       = "export"
	OpImport       = "import"
	OpEncode       = "encode"
	OpDecode       = "decode"
	OpExportFile   = "export_file"
	OpImportFile   = "import_file"
	OpConfigure    = "configure_persistence"
	OpSave         = "save"
	OpLoad         = "load"
	OpClearStorage = "clear_storage"
	OpCommand      = "command"
)

// Error is the error type returned by every engine operation.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// newError builds an *Error whose message is the kind sentinel, optionally
// annotated with detail.
func newError(op, path string, kind Kind, detail string) error {
	err := kindSentinels[kind]
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// wrapError attaches a kind to an underlying cause.
func wrapError(op, path string, kind Kind, cause error) error {
	return &Error{Op: op, Path: path, Kind: kind, Err: fmt.Errorf("%w: %w", kindSentinels[kind], cause)}
}

// KindOf extracts the [Kind] from err. Returns KindNone for nil and for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
