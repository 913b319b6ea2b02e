package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// resetGlobals lets a test initialize the loggers again and restores the
// previous globals afterwards.
func resetGlobals(t *testing.T) {
	t.Helper()
	origLogr, origZap, origClose := globalLogrLogger, globalZapLogger, closeSink
	once = sync.Once{}
	globalLogrLogger, globalZapLogger, closeSink = nil, nil, nil
	t.Cleanup(func() {
		globalLogrLogger, globalZapLogger, closeSink = origLogr, origZap, origClose
	})
}

func TestGetWithSinkWritesJSON(t *testing.T) {
	resetGlobals(t)
	var buf bytes.Buffer
	lgr := Get(-1, WithSink(zapcore.AddSync(&buf)))
	lgr.V(1).Info("engine started", "files", 2)
	Sync()

	out := buf.String()
	assert.Contains(t, out, `"message":"engine started"`)
	assert.Contains(t, out, `"files":2`)
	assert.Contains(t, out, `"`+VersionKey+`"`)
	assert.Contains(t, out, `"`+TimeStampKey+`"`)
}

func TestGetLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     int8
		wantDebug bool
	}{
		{"debug", -1, true},
		{"info", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			var buf bytes.Buffer
			lgr := Get(tt.level, WithSink(zapcore.AddSync(&buf)))
			lgr.V(1).Info("query finished")
			lgr.Info("explorer started")
			Sync()

			assert.Contains(t, buf.String(), "explorer started")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("query finished")))
		})
	}
}

func TestGetInitializesOnce(t *testing.T) {
	resetGlobals(t)
	var first, second bytes.Buffer
	lgr := Get(0, WithSink(zapcore.AddSync(&first)))
	again := Get(0, WithSink(zapcore.AddSync(&second)))
	require.Same(t, lgr, again)

	again.Info("reload")
	Sync()
	assert.Contains(t, first.String(), "reload")
	assert.Empty(t, second.String())
}

func TestGetDiscardsByDefault(t *testing.T) {
	resetGlobals(t)
	lgr := Get(0)
	require.NotNil(t, lgr)
	assert.NotSame(t, &defaultNoopLogger, lgr, "a real logger is built even without a sink")
	lgr.Info("nobody sees this")
}

func TestContextLogger(t *testing.T) {
	resetGlobals(t)
	ctx := context.Background()
	assert.Same(t, &defaultNoopLogger, FromContext(ctx), "no logger anywhere")

	global := Get(0)
	assert.Same(t, global, FromContext(ctx), "global logger as fallback")

	ui := WithValues(global, SubCommandKey, "ui")
	uiCtx := WithLogger(ctx, ui)
	assert.Same(t, ui, FromContext(uiCtx))
	assert.Equal(t, uiCtx, WithLogger(uiCtx, ui), "same logger keeps the context")

	discard := logr.Discard()
	assert.Same(t, &discard, FromContext(WithLogger(uiCtx, &discard)))
}

func TestWithValuesAddsFields(t *testing.T) {
	resetGlobals(t)
	var buf bytes.Buffer
	lgr := Get(0, WithSink(zapcore.AddSync(&buf)))
	scoped := WithValues(lgr, RootCommandKey, "jqx", SubCommandKey, "keys")
	require.NotSame(t, lgr, scoped)

	scoped.Info("listing bindings")
	lgr.Info("plain")
	Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"sub_command":"keys"`)
	assert.NotContains(t, string(lines[1]), `"sub_command"`)
}

func TestOpenFile(t *testing.T) {
	resetGlobals(t)
	path := filepath.Join(t.TempDir(), "jqx.log")
	ws, err := OpenFile(path)
	require.NoError(t, err)

	lgr := Get(0, WithSink(ws))
	lgr.Info("to the file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to the file")
	assert.Nil(t, closeSink, "Sync releases the log file")
}

func TestOpenFileFailsForMissingDirectory(t *testing.T) {
	resetGlobals(t)
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing", "dir", "jqx.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
	assert.Nil(t, closeSink)
}

func TestIsIgnorableSyncError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not a tty", &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.ENOTTY}, true},
		{"invalid argument", syscall.EINVAL, true},
		{"windows console", &os.PathError{Op: "sync", Path: "CONOUT$", Err: errString("The handle is invalid.")}, true},
		{"disk full", syscall.ENOSPC, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIgnorableSyncError(tt.err))
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
