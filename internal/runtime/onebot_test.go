package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
)

type recordingActionRole struct {
	startOrder *[]string
	startErr   error
	called     int
}

func (r *recordingActionRole) Start(ctx context.Context, ob *OneBot[string, Action[string], string, V12]) ([]*Task, error) {
	*r.startOrder = append(*r.startOrder, "action")
	if r.startErr != nil {
		return nil, r.startErr
	}
	return []*Task{Spawn(ctx, "action-loop", func(ctx context.Context) { <-ctx.Done() })}, nil
}

func (r *recordingActionRole) Call(ctx context.Context, action Action[string], ob *OneBot[string, Action[string], string, V12]) (Resp[string], error) {
	r.called++
	return RespOK("handled " + action.Action), nil
}

type recordingEventRole struct {
	startOrder *[]string
	events     []BaseEvent[string]
}

func (r *recordingEventRole) Start(ctx context.Context, ob *OneBot[string, Action[string], string, V12]) ([]*Task, error) {
	*r.startOrder = append(*r.startOrder, "event")
	return nil, nil
}

func (r *recordingEventRole) Call(ctx context.Context, event BaseEvent[string], ob *OneBot[string, Action[string], string, V12]) {
	r.events = append(r.events, event)
}

func newTestOneBot() (*OneBot[string, Action[string], string, V12], *recordingActionRole, *recordingEventRole, *[]string) {
	order := &[]string{}
	ah := &recordingActionRole{startOrder: order}
	eh := &recordingEventRole{startOrder: order}
	return NewOneBot[string, Action[string], string, V12](ah, eh), ah, eh, order
}

func TestOneBotStartOrdering(t *testing.T) {
	t.Run("action first", func(t *testing.T) {
		ob, _, _, order := newTestOneBot()
		tasks, err := ob.Start(context.Background(), true)
		require.NoError(t, err)
		defer shutdownTasks(t, ob, tasks)

		assert.Equal(t, []string{"action", "event"}, *order)
		assert.Len(t, tasks, 1)
	})

	t.Run("event first", func(t *testing.T) {
		ob, _, _, order := newTestOneBot()
		tasks, err := ob.Start(context.Background(), false)
		require.NoError(t, err)
		defer shutdownTasks(t, ob, tasks)

		assert.Equal(t, []string{"event", "action"}, *order)
	})
}

func TestOneBotDoubleStart(t *testing.T) {
	ob, _, _, _ := newTestOneBot()
	tasks, err := ob.Start(context.Background(), true)
	require.NoError(t, err)
	defer shutdownTasks(t, ob, tasks)

	_, err = ob.Start(context.Background(), true)
	assert.ErrorIs(t, err, errspkg.ErrAlreadyRunning)
	assert.True(t, ob.Started())
}

func TestOneBotRoleStartFailureKeepsRunning(t *testing.T) {
	order := &[]string{}
	boom := errors.New("listener busy")
	ob := NewOneBot[string, Action[string], string, V12](
		&recordingActionRole{startOrder: order, startErr: boom},
		&recordingEventRole{startOrder: order},
	)

	tasks, err := ob.Start(context.Background(), true)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, tasks)
	// The caller is expected to Shutdown after a partial start.
	assert.True(t, ob.Started())
	require.NoError(t, ob.Shutdown())
}

func TestOneBotSignalBroadcastsOnce(t *testing.T) {
	ob, _, _, _ := newTestOneBot()

	_, err := ob.Signal()
	assert.ErrorIs(t, err, errspkg.ErrNotRunning)
	assert.ErrorIs(t, ob.Shutdown(), errspkg.ErrNotRunning)

	tasks, err := ob.Start(context.Background(), true)
	require.NoError(t, err)

	sigA, err := ob.Signal()
	require.NoError(t, err)
	sigB, err := ob.Signal()
	require.NoError(t, err)

	require.NoError(t, ob.Shutdown())
	for _, sig := range []<-chan struct{}{sigA, sigB} {
		select {
		case <-sig:
		case <-time.After(time.Second):
			t.Fatal("signal channel was not closed")
		}
	}

	assert.ErrorIs(t, ob.Shutdown(), errspkg.ErrNotRunning)
	_, err = ob.Signal()
	assert.ErrorIs(t, err, errspkg.ErrNotRunning)
	assert.False(t, ob.Started())

	for _, task := range tasks {
		task.Abort()
	}
}

func TestOneBotDispatch(t *testing.T) {
	ob, ah, eh, _ := newTestOneBot()

	resp, err := ob.HandleAction(context.Background(), Action[string]{Action: "send_message"})
	require.NoError(t, err)
	assert.Equal(t, "handled send_message", resp.Data)
	assert.Equal(t, 1, ah.called)

	ob.HandleEvent(context.Background(), BaseEvent[string]{ID: "ev-1", Content: "hello"})
	require.Len(t, eh.events, 1)
	assert.Equal(t, "ev-1", eh.events[0].ID)
}

func shutdownTasks(t *testing.T, ob *OneBot[string, Action[string], string, V12], tasks []*Task) {
	t.Helper()
	require.NoError(t, ob.Shutdown())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, task := range tasks {
		task.Abort()
		require.NoError(t, task.Wait(ctx))
	}
}
