// Package commands exposes the engine through JSON commands selected by a
// "type" field, the surface a block UI or script drives.
package commands

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/brettbedarf/sandfs/internal/util"
	"github.com/brettbedarf/sandfs/vfs"
)

var resultJSON = sonic.ConfigStd

// Handler executes one decoded command against an engine.
type Handler func(ctx context.Context, e *vfs.Engine, req *Request) (any, error)

// ErrorInfo describes a failed command.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the outcome of one command. Failed commands still carry the
// safe default value of the command.
type Result struct {
	Type  string     `json:"type"`
	OK    bool       `json:"ok"`
	Value any        `json:"value"`
	Error *ErrorInfo `json:"error,omitempty"`
}

var (
	mu       sync.RWMutex
	handlers = builtinHandlers()
)

// Register ties a handler to a command type, replacing any previous one.
func Register(commandType string, h Handler) {
	mu.Lock()
	handlers[commandType] = h
	mu.Unlock()
}

// Dispatch decodes and runs one command. The returned error is only set for
// requests that cannot be run at all; engine failures are reported in the
// result.
func Dispatch(ctx context.Context, e *vfs.Engine, raw []byte) (Result, error) {
	var req Request
	if err := resultJSON.Unmarshal(raw, &req); err != nil {
		return Result{}, e.Reject(vfs.OpCommand, fmt.Errorf("%w: failed to decode command: %w", vfs.ErrInvalidArgument, err))
	}
	return Execute(ctx, e, &req)
}

// Execute runs an already decoded command.
func Execute(ctx context.Context, e *vfs.Engine, req *Request) (Result, error) {
	mu.RLock()
	h, ok := handlers[req.Type]
	mu.RUnlock()
	if !ok {
		return Result{}, e.Reject(vfs.OpCommand, invalid("no handler for %q", req.Type))
	}

	value, err := h(ctx, e, req)
	err = e.Reject(vfs.OpCommand, err)
	res := Result{Type: req.Type, OK: err == nil, Value: value}
	if err != nil {
		res.Error = errorInfo(err)
		logger := util.GetLogger("Commands")
		logger.Debug().Err(err).Str("type", req.Type).Msg("Command failed")
	}
	return res, nil
}

// Run executes a script: a JSON array of commands, in order. Every command
// runs even when an earlier one fails.
func Run(ctx context.Context, e *vfs.Engine, script []byte) ([]Result, error) {
	var reqs []Request
	if err := resultJSON.Unmarshal(script, &reqs); err != nil {
		return nil, e.Reject(vfs.OpCommand, fmt.Errorf("%w: failed to decode script: %w", vfs.ErrInvalidArgument, err))
	}

	results := make([]Result, 0, len(reqs))
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := Execute(ctx, e, &reqs[i])
		if err != nil {
			return results, fmt.Errorf("command %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Marshal renders results as JSON.
func Marshal(v any) ([]byte, error) {
	return resultJSON.MarshalIndent(v, "", "  ")
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", vfs.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func errorInfo(err error) *ErrorInfo {
	return &ErrorInfo{Kind: vfs.KindOf(err).String(), Message: err.Error()}
}
