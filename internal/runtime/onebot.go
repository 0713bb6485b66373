package runtime

import (
	"context"
	"sync"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
)

// Version is a phantom discriminant pinning a coordinator and its handlers to
// one protocol revision at compile time. Mixing handlers built for different
// revisions fails type checking instead of failing on the wire.
type Version interface {
	ProtocolVersion() uint8
}

// V11 marks OneBot protocol revision 11.
type V11 struct{}

func (V11) ProtocolVersion() uint8 { return 11 }

// V12 marks OneBot protocol revision 12.
type V12 struct{}

func (V12) ProtocolVersion() uint8 { return 12 }

// ActionHandler is the role that answers actions. Start begins whatever
// background work the role needs and returns the spawned task handles; Call
// answers one action and must be safe under concurrent invocation.
type ActionHandler[E, A, R any, V Version] interface {
	Start(ctx context.Context, ob *OneBot[E, A, R, V]) ([]*Task, error)
	Call(ctx context.Context, action A, ob *OneBot[E, A, R, V]) (Resp[R], error)
}

// EventHandler is the role that reacts to events, for example by forwarding
// them to application logic. Call must tolerate concurrent invocation.
type EventHandler[E, A, R any, V Version] interface {
	Start(ctx context.Context, ob *OneBot[E, A, R, V]) ([]*Task, error)
	Call(ctx context.Context, event BaseEvent[E], ob *OneBot[E, A, R, V])
}

// OneBot composes one action-handling role and one event-handling role with
// a cooperative-shutdown broadcast. The two roles never call each other
// directly; the coordinator reference passed to both is their only shared
// context.
type OneBot[E, A, R any, V Version] struct {
	ActionHandler ActionHandler[E, A, R, V]
	EventHandler  EventHandler[E, A, R, V]

	// signal is non-nil while running; closing it is the one-shot
	// shutdown broadcast.
	mu     sync.Mutex
	signal chan struct{}
}

func NewOneBot[E, A, R any, V Version](ah ActionHandler[E, A, R, V], eh EventHandler[E, A, R, V]) *OneBot[E, A, R, V] {
	return &OneBot[E, A, R, V]{
		ActionHandler: ah,
		EventHandler:  eh,
	}
}

// Start begins both roles, action handler first when actionFirst is true.
// The deterministic ordering lets callers decide which role's setup side
// effects happen first, e.g. opening a listening socket before the other
// role starts dialing it. The returned handles are in start order. A role
// Start error is returned as-is; the coordinator stays marked running so the
// caller can Shutdown it.
func (ob *OneBot[E, A, R, V]) Start(ctx context.Context, actionFirst bool) ([]*Task, error) {
	ob.mu.Lock()
	if ob.signal != nil {
		ob.mu.Unlock()
		return nil, errspkg.ErrAlreadyRunning
	}
	ob.signal = make(chan struct{})
	ob.mu.Unlock()

	order := []starter[E, A, R, V]{ob.EventHandler, ob.ActionHandler}
	if actionFirst {
		order[0], order[1] = order[1], order[0]
	}

	var tasks []*Task
	for _, role := range order {
		spawned, err := role.Start(ctx, ob)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, spawned...)
	}
	return tasks, nil
}

// starter is the common Start shape of both roles.
type starter[E, A, R any, V Version] interface {
	Start(ctx context.Context, ob *OneBot[E, A, R, V]) ([]*Task, error)
}

// Started reports whether the coordinator is running.
func (ob *OneBot[E, A, R, V]) Started() bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.signal != nil
}

// Signal returns the shutdown broadcast channel. Every receiver observes
// exactly one close. Fails with ErrNotRunning while stopped.
func (ob *OneBot[E, A, R, V]) Signal() (<-chan struct{}, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.signal == nil {
		return nil, errspkg.ErrNotRunning
	}
	return ob.signal, nil
}

// Shutdown takes the signal cell and broadcasts once. Having zero
// subscribers is fine. Fails with ErrNotRunning while stopped.
func (ob *OneBot[E, A, R, V]) Shutdown() error {
	ob.mu.Lock()
	signal := ob.signal
	ob.signal = nil
	ob.mu.Unlock()
	if signal == nil {
		return errspkg.ErrNotRunning
	}
	close(signal)
	return nil
}

// HandleAction dispatches one action to the action-handling role.
func (ob *OneBot[E, A, R, V]) HandleAction(ctx context.Context, action A) (Resp[R], error) {
	return ob.ActionHandler.Call(ctx, action, ob)
}

// HandleEvent dispatches one event to the event-handling role.
func (ob *OneBot[E, A, R, V]) HandleEvent(ctx context.Context, event BaseEvent[E]) {
	ob.EventHandler.Call(ctx, event, ob)
}
