package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}

	for _, tc := range tests {
		assert.Contains(t, out, "level="+tc.level)
		assert.Contains(t, out, "msg="+tc.msg)
		assert.Contains(t, out, tc.attr)
	}
}

func TestSlogLogger_WithAndRequestID(t *testing.T) {
	log, buf := newTestLogger(t)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.With("module", "auth_service").Info(ctx, "login", "account_id", "u-1")

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=login", "module=auth_service", "account_id=u-1", "request_id=req-42"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(ContextWithRequestID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestNewSlogJSONLogger(t *testing.T) {
	l, err := NewSlogJSONLogger("warn")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = NewSlogJSONLogger("loud")
	require.Error(t, err)
}

func TestNew_Backends(t *testing.T) {
	l, err := New(Options{Backend: "slog", Level: "debug"})
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New(Options{Backend: "zap", Level: "info"})
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	l, err = New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New(Options{Backend: "logrus"})
	require.Error(t, err)
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	l := Discard()
	ctx := context.TODO()
	l.Info(ctx, "ok")
	l.With("k", "v").Error(ctx, "ok")
}
