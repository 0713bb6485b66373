package transport

import (
	"context"
	"time"

	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/internal/runtime/metrics"
)

// ConnectFunc attempts to establish one outbound connection.
type ConnectFunc[C any] func(ctx context.Context) (C, error)

// SessionFunc drives an established connection until it terminates for any
// reason: peer close, error, or protocol violation.
type SessionFunc[C any] func(ctx context.Context, conn C)

// ReconnectForever wraps a single outbound client connection in the
// reconnect-forever strategy: connect, run the session to completion, sleep
// the fixed interval, retry. There is no backoff growth and no retry
// ceiling; the fixed sleep is the only protection against hot-looping on a
// persistently unreachable peer. The loop exits only when ctx is cancelled,
// which happens when the owning task handle is aborted.
func ReconnectForever[C any](ctx context.Context, interval time.Duration, connect ConnectFunc[C], session SessionFunc[C], log logging.ServiceLogger, m *metrics.Metrics) {
	if interval <= 0 {
		interval = time.Second
	}
	for {
		if ctx.Err() != nil {
			return
		}
		m.ReconnectAttempt()
		conn, err := connect(ctx)
		if err != nil {
			log.Debug("connect attempt failed", logging.LogFields{"error": err.Error()})
		} else {
			session(ctx, conn)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
