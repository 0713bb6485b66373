package runtime

import "context"

// Task tracks one background goroutine. Shutdown is advisory everywhere in
// the runtime, so owners keep the returned handles and either Wait for tasks
// to observe the flag or Abort them outright.
type Task struct {
	name   string
	done   chan struct{}
	cancel context.CancelFunc
}

// Spawn runs fn on its own goroutine with a context derived from parent.
// The context is cancelled by Abort or when the parent is cancelled.
func Spawn(parent context.Context, name string, fn func(ctx context.Context)) *Task {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		name:   name,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		defer close(t.done)
		fn(ctx)
	}()
	return t
}

func (t *Task) Name() string {
	return t.name
}

// Done is closed when the goroutine has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx expires.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Abort cancels the task's context. It does not wait for the goroutine to
// return; combine with Wait when the resources must be released first.
func (t *Task) Abort() {
	t.cancel()
}
