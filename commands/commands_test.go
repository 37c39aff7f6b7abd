package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/sandfs/config"
	"github.com/brettbedarf/sandfs/vfs"
)

func newTestEngine(t *testing.T) *vfs.Engine {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Logging = false
	return vfs.New(cfg)
}

func dispatch(t *testing.T, e *vfs.Engine, raw string) Result {
	t.Helper()
	res, err := Dispatch(context.Background(), e, []byte(raw))
	require.NoError(t, err)
	return res
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("action then read", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		res := dispatch(t, e, `{"type":"action","action":"set-content","path":"/a/b.txt","content":"hi"}`)
		assert.True(t, res.OK)
		assert.Nil(t, res.Error)

		res = dispatch(t, e, `{"type":"read","path":"/a/b.txt"}`)
		assert.Equal(t, Result{Type: TypeRead, OK: true, Value: "hi"}, res)
	})

	t.Run("engine failure keeps safe default", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		res := dispatch(t, e, `{"type":"read","path":"/missing.txt"}`)
		assert.False(t, res.OK)
		assert.Equal(t, "", res.Value)
		require.NotNil(t, res.Error)
		assert.Equal(t, "NotFound", res.Error.Kind)

		res = dispatch(t, e, `{"type":"list","path":"/missing/"}`)
		assert.Equal(t, []string{}, res.Value)
	})

	t.Run("bad arguments", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		for _, raw := range []string{
			`{"type":"action","action":"explode","path":"/a"}`,
			`{"type":"check","check":"haunted","path":"/"}`,
			`{"type":"get","attribute":"colour","path":"/"}`,
			`{"type":"permission","action":"add","path":"/","permission":"fly"}`,
			`{"type":"limit","action":"set","path":"/"}`,
			`{"type":"limit","action":"set","path":"/","limit":true}`,
			`{"type":"configure-persistence","namespace":"ns","backend":"floppy"}`,
		} {
			res := dispatch(t, e, raw)
			assert.False(t, res.OK, raw)
			require.NotNil(t, res.Error, raw)
			assert.Equal(t, "InvalidArgument", res.Error.Kind, raw)
		}
	})

	t.Run("undecodable", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		_, err := Dispatch(context.Background(), e, []byte(`{"type":`))
		require.Error(t, err)
		_, err = Dispatch(context.Background(), e, []byte(`{"type":"teleport"}`))
		assert.ErrorContains(t, err, `no handler for "teleport"`)
		assert.ErrorIs(t, err, vfs.ErrInvalidArgument)
	})

	t.Run("command failures become the last error", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			raw  string
			want string
		}{
			{"unknown action", `{"type":"action","action":"explode","path":"/a"}`, `unknown action "explode"`},
			{"unknown check", `{"type":"check","check":"haunted","path":"/"}`, `unknown check "haunted"`},
			{"unknown backend", `{"type":"configure-persistence","namespace":"ns","backend":"floppy"}`, "floppy"},
			{"unknown type", `{"type":"teleport"}`, `no handler for "teleport"`},
			{"undecodable", `{"type":`, "failed to decode command"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				e := newTestEngine(t)
				_, _ = Dispatch(context.Background(), e, []byte(tt.raw))

				last := e.LastError()
				require.NotNil(t, last)
				assert.Equal(t, vfs.KindInvalidArgument, last.Kind)
				assert.Equal(t, vfs.OpCommand, last.Op)
				assert.ErrorContains(t, last, tt.want)

				res := dispatch(t, e, `{"type":"get","attribute":"last-error"}`)
				assert.Contains(t, res.Value, tt.want)
			})
		}
	})

	t.Run("engine failures are not recorded twice", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		res := dispatch(t, e, `{"type":"read","path":"/missing.txt"}`)
		require.NotNil(t, res.Error)
		last := e.LastError()
		require.NotNil(t, last)
		assert.Equal(t, vfs.OpRead, last.Op)
		assert.Equal(t, vfs.KindNotFound, last.Kind)
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	steps := []struct {
		raw  string
		want any
	}{
		{`{"type":"action","action":"create","path":"/docs/"}`, nil},
		{`{"type":"action","action":"set-content","path":"/docs/a.txt","content":"alpha"}`, nil},
		{`{"type":"action","action":"copy","path":"/docs/a.txt","dest":"/docs/b.txt"}`, nil},
		{`{"type":"action","action":"rename","path":"/docs/b.txt","dest":"/docs/c.md"}`, nil},
		{`{"type":"list","path":"/docs/","filter":"file"}`, []string{"a.txt", "c.md"}},
		{`{"type":"glob","path":"/docs/","pattern":"*.md"}`, []string{"c.md"}},
		{`{"type":"check","check":"exists","path":"/docs/c.md"}`, true},
		{`{"type":"check","check":"is-dir","path":"/docs"}`, true},
		{`{"type":"check","check":"was-written"}`, true},
		{`{"type":"check","check":"reset-activity"}`, true},
		{`{"type":"check","check":"was-read"}`, false},
		{`{"type":"get","attribute":"size","path":"/docs/"}`, int64(10)},
		{`{"type":"get","attribute":"name","path":"/docs/a.txt"}`, "a.txt"},
		{`{"type":"get","attribute":"dir","path":"/docs/a.txt"}`, "/docs/"},
		{`{"type":"get","attribute":"mime","path":"/docs/c.md"}`, vfs.MIMEType("/docs/c.md")},
		{`{"type":"get","attribute":"version"}`, vfs.Version},
		{`{"type":"limit","action":"set","path":"/docs/","limit":"100"}`, nil},
		{`{"type":"get","attribute":"limit","path":"/docs/"}`, int64(100)},
		{`{"type":"limit","action":"remove","path":"/docs/"}`, nil},
		{`{"type":"get","attribute":"limit","path":"/docs/"}`, vfs.Unlimited},
		{`{"type":"permission","action":"remove","path":"/docs/a.txt","permission":"write"}`, nil},
		{`{"type":"permission","action":"has","path":"/docs/a.txt","permission":"write"}`, false},
		{`{"type":"permission","action":"list","path":"/docs/a.txt"}`, []string{"create", "delete", "see", "read", "control"}},
		{`{"type":"permission","action":"restore","path":"/docs/a.txt"}`, nil},
		{`{"type":"permission","action":"has","path":"/docs/a.txt","permission":"write"}`, true},
		{`{"type":"encode","text":"hi"}`, "aGk="},
		{`{"type":"decode","data":"aGk="}`, "hi"},
		{`{"type":"import-file","data":"data:text/plain;base64,aGk=","path":"/RAM/hi.txt"}`, nil},
		{`{"type":"export-file","path":"/RAM/hi.txt","format":"base64"}`, "aGk="},
		{`{"type":"action","action":"delete","path":"/docs/c.md"}`, nil},
		{`{"type":"check","check":"exists","path":"/docs/c.md"}`, false},
		{`{"type":"glob","path":"/.Trash/","pattern":"*_c.md"}`, nil},
		{`{"type":"clear","scope":"trash"}`, nil},
		{`{"type":"list","path":"/.Trash/"}`, []string{}},
		{`{"type":"logging","enabled":true}`, true},
		{`{"type":"logging"}`, true},
		{`{"type":"logging","enabled":false}`, false},
		{`{"type":"selftest"}`, true},
		{`{"type":"is-persistence-enabled"}`, false},
	}
	for _, step := range steps {
		res := dispatch(t, e, step.raw)
		require.True(t, res.OK, "%s: %+v", step.raw, res.Error)
		if step.want == nil && res.Type == TypeGlob {
			assert.Len(t, res.Value, 1, step.raw)
			continue
		}
		assert.Equal(t, step.want, res.Value, step.raw)
	}
}

func TestSnapshotCommands(t *testing.T) {
	t.Parallel()

	src := newTestEngine(t)
	dispatch(t, src, `{"type":"action","action":"set-content","path":"/keep.txt","content":"k"}`)
	res := dispatch(t, src, `{"type":"export"}`)
	require.True(t, res.OK)
	text, ok := res.Value.(string)
	require.True(t, ok)

	dst := newTestEngine(t)
	res, err := Execute(context.Background(), dst, &Request{Type: TypeImport, Data: text})
	require.NoError(t, err)
	require.True(t, res.OK)
	got, err := dst.Read("/keep.txt")
	require.NoError(t, err)
	assert.Equal(t, "k", got)

	res = dispatch(t, dst, `{"type":"import","data":"{oops"}`)
	assert.Equal(t, "ImportError", res.Error.Kind)
}

func TestPersistenceCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e := newTestEngine(t)
	script := `[
		{"type":"save"},
		{"type":"configure-persistence","namespace":"proj","backend":"billy","dir":"` + dir + `","compress":true},
		{"type":"action","action":"set-content","path":"/saved.txt","content":"v1"},
		{"type":"save"},
		{"type":"action","action":"set-content","path":"/saved.txt","content":"v2"},
		{"type":"load"},
		{"type":"read","path":"/saved.txt"},
		{"type":"clear-storage"},
		{"type":"load"}
	]`
	results, err := Run(context.Background(), e, []byte(script))
	require.NoError(t, err)
	require.Len(t, results, 9)

	assert.Equal(t, "NotConfigured", results[0].Error.Kind)
	assert.Equal(t, true, results[1].Value)
	for _, i := range []int{2, 3, 4, 5, 7} {
		assert.True(t, results[i].OK, "command %d: %+v", i, results[i].Error)
	}
	assert.Equal(t, "v1", results[6].Value)
	assert.Equal(t, "NotFound", results[8].Error.Kind)
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("keeps going after failures", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		results, err := Run(context.Background(), e, []byte(`[
			{"type":"read","path":"/nope"},
			{"type":"action","action":"create","path":"/yes/"}
		]`))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.False(t, results[0].OK)
		assert.True(t, results[1].OK)
		assert.True(t, e.IsDir("/yes/"))
	})

	t.Run("unknown type aborts", func(t *testing.T) {
		t.Parallel()
		e := newTestEngine(t)
		results, err := Run(context.Background(), e, []byte(`[
			{"type":"action","action":"create","path":"/first/"},
			{"type":"bogus"},
			{"type":"action","action":"create","path":"/never/"}
		]`))
		assert.ErrorContains(t, err, "command 1")
		assert.Len(t, results, 1)
		assert.False(t, e.Exists("/never/"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := Run(ctx, newTestEngine(t), []byte(`[{"type":"selftest"}]`))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})

	t.Run("not an array", func(t *testing.T) {
		t.Parallel()
		_, err := Run(context.Background(), newTestEngine(t), []byte(`{"type":"selftest"}`))
		assert.ErrorContains(t, err, "failed to decode script")
	})
}

func TestRegister(t *testing.T) {
	e := newTestEngine(t)
	Register("echo", func(_ context.Context, _ *vfs.Engine, req *Request) (any, error) {
		return req.Text, nil
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(handlers, "echo")
		mu.Unlock()
	})

	res := dispatch(t, e, `{"type":"echo","text":"ping"}`)
	assert.Equal(t, "ping", res.Value)
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	out, err := Marshal([]Result{
		{Type: TypeRead, OK: false, Value: "", Error: &ErrorInfo{Kind: "NotFound", Message: "gone"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"read","ok":false,"value":"","error":{"kind":"NotFound","message":"gone"}}]`, string(out))
}
