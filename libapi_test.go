package botwire

import (
	"context"
	"errors"
	"testing"
)

type demoContent struct {
	Type string `json:"type"`
}

type demoAction = Action[map[string]any]

type nopActionRole struct{}

func (nopActionRole) Start(ctx context.Context, ob *OneBot[demoContent, demoAction, string, V12]) ([]*Task, error) {
	return nil, nil
}

func (nopActionRole) Call(ctx context.Context, action demoAction, ob *OneBot[demoContent, demoAction, string, V12]) (Resp[string], error) {
	return RespOK("done"), nil
}

type nopEventRole struct{}

func (nopEventRole) Start(ctx context.Context, ob *OneBot[demoContent, demoAction, string, V12]) ([]*Task, error) {
	return nil, nil
}

func (nopEventRole) Call(ctx context.Context, event BaseEvent[demoContent], ob *OneBot[demoContent, demoAction, string, V12]) {
}

func TestOneBotExportLifecycle(t *testing.T) {
	ob := NewOneBot[demoContent, demoAction, string, V12](nopActionRole{}, nopEventRole{})

	if _, err := ob.Signal(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected not running error, got %v", err)
	}
	if _, err := ob.Start(context.Background(), true); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := ob.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestImplExportValidation(t *testing.T) {
	_, err := NewImpl[demoContent, demoAction, string](Identity{}, ImplConfig{}, nil, Nop(), ImplDependencies[demoContent]{})
	if !errors.Is(err, ErrHandlerRequired) {
		t.Fatalf("expected handler required error, got %v", err)
	}
}

func TestEncodingExportAliases(t *testing.T) {
	event := BaseEvent[demoContent]{ID: NewULID(), Content: demoContent{Type: "notice"}}
	data, err := Marshal(event)
	if err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	var back BaseEvent[demoContent]
	if err := Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
	if back.Content.Type != "notice" {
		t.Fatalf("expected content to survive the round trip, got %#v", back)
	}
}

func TestRespExportConstructors(t *testing.T) {
	if resp := RespUnsupportedAction[string](); resp.RetCode != RetCodeUnsupportedAction {
		t.Fatalf("unexpected retcode %d", resp.RetCode)
	}
	if resp := RespFailed[string](RetCodeBadParam, "missing user_id"); resp.Status != "failed" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}

func TestSpawnExport(t *testing.T) {
	done := make(chan struct{})
	task := Spawn(context.Background(), "demo", func(ctx context.Context) { close(done) })
	<-done
	if task.Name() != "demo" {
		t.Fatalf("unexpected task name %q", task.Name())
	}
}
