package commands

import (
	"context"
	"sync"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/persist"
	"github.com/brettbedarf/sandfs/vfs"
)

// Command types understood by [Dispatch].
const (
	TypeAction         = "action"
	TypeRead           = "read"
	TypeList           = "list"
	TypeGlob           = "glob"
	TypeClear          = "clear"
	TypeConfigure      = "configure-persistence"
	TypeSave           = "save"
	TypeLoad           = "load"
	TypeClearStorage   = "clear-storage"
	TypePersistEnabled = "is-persistence-enabled"
	TypeCheck          = "check"
	TypeGet            = "get"
	TypePermission     = "permission"
	TypeLimit          = "limit"
	TypeImport         = "import"
	TypeExport         = "export"
	TypeExportFile     = "export-file"
	TypeImportFile     = "import-file"
	TypeEncode         = "encode"
	TypeDecode         = "decode"
	TypeMIME           = "mime"
	TypeLogging        = "logging"
	TypeSelfTest       = "selftest"
)

var registerBackends sync.Once

func builtinHandlers() map[string]Handler {
	return map[string]Handler{
		TypeAction:         handleAction,
		TypeRead:           handleRead,
		TypeList:           handleList,
		TypeGlob:           handleGlob,
		TypeClear:          handleClear,
		TypeConfigure:      handleConfigure,
		TypeSave:           handleSave,
		TypeLoad:           handleLoad,
		TypeClearStorage:   handleClearStorage,
		TypePersistEnabled: handlePersistEnabled,
		TypeCheck:          handleCheck,
		TypeGet:            handleGet,
		TypePermission:     handlePermission,
		TypeLimit:          handleLimit,
		TypeImport:         handleImport,
		TypeExport:         handleExport,
		TypeExportFile:     handleExportFile,
		TypeImportFile:     handleImportFile,
		TypeEncode:         handleEncode,
		TypeDecode:         handleDecode,
		TypeMIME:           handleMIME,
		TypeLogging:        handleLogging,
		TypeSelfTest:       handleSelfTest,
	}
}

// handleAction runs one of the mutating file operations picked by req.Action.
func handleAction(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	switch req.Action {
	case "create":
		return nil, e.Create(req.Path)
	case "delete":
		return nil, e.Delete(req.Path)
	case "set-content", "write":
		return nil, e.Write(req.Path, req.content())
	case "copy":
		return nil, e.Copy(req.Path, req.Dest)
	case "rename", "move":
		return nil, e.Rename(req.Path, req.Dest)
	}
	return nil, invalid("unknown action %q", req.Action)
}

func handleRead(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.Read(req.Path)
}

func handleList(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.List(req.Path, req.filter())
}

func handleGlob(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.Glob(req.Path, req.Pattern, req.filter())
}

func handleClear(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	scope := vfs.ClearScope(req.Scope)
	if scope == "" {
		scope = vfs.ClearAll
	}
	return nil, e.Clear(scope)
}

// handleConfigure builds a backend from the request and hands it to the engine.
// An empty backend kind means the in-memory store.
func handleConfigure(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	opts := config.PersistenceOptions{
		Namespace: req.Namespace,
		Backend:   req.Backend,
		Dir:       req.Dir,
		Compress:  req.Compress,
		Endpoint:  req.Endpoint,
		Bucket:    req.Bucket,
		AccessKey: req.AccessKey,
		SecretKey: req.SecretKey,
		UseSSL:    req.UseSSL == nil || *req.UseSSL,
		Prefix:    req.Prefix,
	}
	if opts.Backend == "" {
		opts.Backend = config.DefaultBackend
	}
	registerBackends.Do(func() { persist.RegisterBuiltins() })
	backend, err := persist.New(opts)
	if err != nil {
		return false, invalid("%v", err)
	}
	err = e.ConfigurePersistence(opts.Namespace, backend)
	return e.PersistenceEnabled(), err
}

func handleSave(ctx context.Context, e *vfs.Engine, _ *Request) (any, error) {
	return nil, e.Save(ctx)
}

func handleLoad(ctx context.Context, e *vfs.Engine, _ *Request) (any, error) {
	return nil, e.Load(ctx)
}

func handleClearStorage(ctx context.Context, e *vfs.Engine, _ *Request) (any, error) {
	return nil, e.ClearStorage(ctx)
}

func handlePersistEnabled(_ context.Context, e *vfs.Engine, _ *Request) (any, error) {
	return e.PersistenceEnabled(), nil
}

func handleCheck(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	switch req.Check {
	case "exists":
		return e.Exists(req.Path), nil
	case "is-dir", "dir":
		return e.IsDir(req.Path), nil
	case "is-file", "file":
		return e.IsFile(req.Path), nil
	case "was-read":
		return e.WasRead(), nil
	case "was-written":
		return e.WasWritten(), nil
	case "reset-activity":
		e.ResetActivity()
		return true, nil
	}
	return false, invalid("unknown check %q", req.Check)
}

func handleGet(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	switch req.Attribute {
	case "name":
		return e.Name(req.Path)
	case "dir":
		return e.Dir(req.Path)
	case "size":
		return e.Size(req.Path)
	case "limit":
		return e.Limit(req.Path)
	case "mime":
		return vfs.MIMEType(req.Path), nil
	case "last-read":
		return e.LastRead(), nil
	case "last-write":
		return e.LastWrite(), nil
	case "last-error":
		if last := e.LastError(); last != nil {
			return last.Error(), nil
		}
		return "", nil
	case "version":
		return e.Version(), nil
	}
	return "", invalid("unknown attribute %q", req.Attribute)
}

// handlePermission covers add, remove, list, has and restore.
func handlePermission(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	switch req.Action {
	case "list":
		return e.ListPermissions(req.Path)
	case "restore":
		return nil, e.RestoreDefaults(req.Path)
	}

	action, ok := vfs.ParseAction(req.Permission)
	if !ok {
		return nil, invalid("unknown permission %q", req.Permission)
	}
	switch req.Action {
	case "add":
		return nil, e.SetPermission(req.Path, action, true)
	case "remove":
		return nil, e.SetPermission(req.Path, action, false)
	case "has":
		return e.HasPermission(req.Path, action)
	}
	return nil, invalid("unknown permission action %q", req.Action)
}

func handleLimit(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	switch req.Action {
	case "set":
		limit, err := req.limit()
		if err != nil {
			return nil, invalid("%v", err)
		}
		return nil, e.SetLimit(req.Path, limit)
	case "remove":
		return nil, e.RemoveLimit(req.Path)
	}
	return nil, invalid("unknown limit action %q", req.Action)
}

func handleImport(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return nil, e.Import(req.Data)
}

func handleExport(_ context.Context, e *vfs.Engine, _ *Request) (any, error) {
	return e.Export()
}

func handleExportFile(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.ExportFile(req.Path, vfs.TransferFormat(req.Format))
}

func handleImportFile(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return nil, e.ImportFile(req.Data, req.Path)
}

func handleEncode(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.Encode(req.Text), nil
}

func handleDecode(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.Decode(req.Data)
}

func handleMIME(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	return e.DetectMIME(req.Path)
}

func handleLogging(_ context.Context, e *vfs.Engine, req *Request) (any, error) {
	if req.Enabled != nil {
		e.SetLogging(*req.Enabled)
	}
	return e.LoggingEnabled(), nil
}

func handleSelfTest(_ context.Context, e *vfs.Engine, _ *Request) (any, error) {
	err := e.SelfTest()
	return err == nil, err
}
