package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	m := New()

	m.EventPublished()
	m.EventPublished()
	m.EventDropped()
	m.ActionHandled("ok")
	m.ActionHandled("ok")
	m.ActionHandled("failed")
	m.HeartbeatSent()
	m.WSConnected()
	m.WSConnected()
	m.WSDisconnected()
	m.ReconnectAttempt()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Heartbeats))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconnects))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	m.EventPublished()
	m.EventDropped()
	m.ActionHandled("ok")
	m.HeartbeatSent()
	m.WSConnected()
	m.WSDisconnected()
	m.ReconnectAttempt()

	assert.Nil(t, m.Registry())
}

func TestIndependentRegistries(t *testing.T) {
	// Two runtime instances must not collide on collector registration.
	a := New()
	b := New()

	require.NotSame(t, a.Registry(), b.Registry())

	a.EventPublished()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.EventsPublished))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EventsPublished))
}
