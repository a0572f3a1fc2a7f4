package logger

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/config"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		cfg     config.Logger
		wantErr bool
	}{
		{cfg: config.Logger{Level: "debug", Format: "console"}},
		{cfg: config.Logger{Level: "warn", Format: "json"}},
		{cfg: config.Logger{Level: "info"}},
		{cfg: config.Logger{Level: "bogus"}, wantErr: true},
		{cfg: config.Logger{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		l, err := NewZapLogger(tt.cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewZapLogger(%+v) succeeded, want error", tt.cfg)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewZapLogger(%+v) failed: %v", tt.cfg, err)
			continue
		}
		l.Sync()
	}
}

func TestZapLoggerWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newZapLoggerFromCore(core)

	l.With("request_id", "abc").Info("tile served", "quad_key", "0313")
	l.Debug("plain")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	want := map[string]any{"request_id": "abc", "quad_key": "0313"}
	if diff := cmp.Diff(want, entries[0].ContextMap()); diff != "" {
		t.Errorf("entry fields mismatch (-want+got):\n%v", diff)
	}
	if got := entries[1].ContextMap(); len(got) != 0 {
		t.Errorf("With leaked fields into the parent logger: %v", got)
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()).(noOpLogger); !ok {
		t.Errorf("FromContext(empty) is not a no-op logger")
	}

	l := newZapLoggerFromCore(zapcore.NewNopCore())
	ctx := WithLogger(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Errorf("FromContext() = %v, want = %v", got, l)
	}
}

func TestNoOpWith(t *testing.T) {
	l := NewNoOp()
	if got := l.With("k", "v"); got != l {
		t.Errorf("NoOp.With() = %v, want the same logger", got)
	}
}
