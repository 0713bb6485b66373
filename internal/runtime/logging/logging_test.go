package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

func TestSlogServiceLoggerWritesFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	log.Info("booting", LogFields{"platform": "telegram"})
	if out := buf.String(); !strings.Contains(out, "platform=telegram") || !strings.Contains(out, "booting") {
		t.Fatalf("expected structured output, got %q", out)
	}

	buf.Reset()
	log.Error("connect failed", errors.New("refused"), LogFields{"addr": "ws://peer"})
	if out := buf.String(); !strings.Contains(out, "error=refused") || !strings.Contains(out, "addr=ws://peer") {
		t.Fatalf("expected error fields, got %q", out)
	}
}

func TestSlogServiceLoggerWith(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, nil)))

	scoped := log.With(LogFields{"transport": "websocket"})
	scoped.Info("peer connected", nil)

	if out := buf.String(); !strings.Contains(out, "transport=websocket") {
		t.Fatalf("expected scoped field, got %q", out)
	}
}

func TestTraceIsBelowDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	log.Trace("heartbeating", nil)
	if buf.Len() != 0 {
		t.Fatalf("trace should be filtered at debug level, got %q", buf.String())
	}
}

func TestNewSlogServiceLoggerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewSlogServiceLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	var adapter watermill.LoggerAdapter = NewWatermillAdapter(base)
	adapter = adapter.With(watermill.LogFields{"topic": "events"})
	adapter.Info("published", watermill.LogFields{"uuid": "01J"})

	out := buf.String()
	if !strings.Contains(out, "topic=events") || !strings.Contains(out, "uuid=01J") {
		t.Fatalf("expected adapter to forward fields, got %q", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	log := Nop()
	log.With(LogFields{"k": "v"}).Info("ignored", nil)
	log.Error("ignored", errors.New("x"), nil)
	log.Debug("ignored", nil)
	log.Trace("ignored", nil)
}
