// Package transport defines the contracts between the implementation-side
// runtime and its wire transports. Each transport kind lives in its own
// sub-package and registers itself with the registry; programs import the
// kinds they configure:
//
//	import _ "github.com/botwire/botwire/transport/websocket"
package transport

import (
	"context"
	"time"

	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/internal/runtime/metrics"
)

// Registered transport kind names. They double as the keys the runtime uses
// when mapping its configuration lists onto builders.
const (
	KindHTTP      = "http"
	KindWebhook   = "webhook"
	KindWebSocket = "websocket"
	KindWSReverse = "wsreverse"
)

// ProtocolVersion is sent in the self-identification headers of outbound
// connections.
const ProtocolVersion = "12"

// Runtime is the narrow surface a transport needs from the runtime that owns
// it. Working in encoded frames keeps transports free of the runtime's
// content type parameters.
type Runtime interface {
	// Identity returns the implementation name, platform, and bot account id.
	Identity() (impl, platform, selfID string)

	// EventFrames opens an independent tap of encoded event envelopes.
	// The caller must Close it.
	EventFrames() FrameStream

	// HandleFrame answers one encoded action with an encoded response.
	// Safe for concurrent use.
	HandleFrame(ctx context.Context, payload []byte) ([]byte, error)

	// SetOnline records transport-level connectivity on the status flags.
	SetOnline(online bool)

	// IsShutdown reports whether the runtime has been told to stop.
	IsShutdown() bool

	Logger() logging.ServiceLogger
	Metrics() *metrics.Metrics
}

// FrameStream is a pull-style subscription of encoded event envelopes.
type FrameStream interface {
	// Next blocks for the next frame; false means the stream is closed or
	// ctx was cancelled.
	Next(ctx context.Context) ([]byte, bool)
	Close()
}

// Config provides the per-endpoint settings a transport builder consumes.
// The runtime's concrete config entries satisfy it.
type Config interface {
	// GetAddr is the bind address for server kinds and the peer URL for
	// client kinds.
	GetAddr() string
	GetAccessToken() string
	GetTimeout() time.Duration
	GetReconnectInterval() time.Duration
}

// Transport is one configured endpoint. Run blocks until ctx is cancelled.
type Transport interface {
	Name() string
	Run(ctx context.Context)
}

// Builder constructs a transport from one config entry.
type Builder func(cfg Config, rt Runtime) (Transport, error)

// Capabilities describes what a transport kind can do, for introspection.
type Capabilities struct {
	// Duplex transports carry actions and events on one connection.
	Duplex bool
	// Server kinds accept inbound peers; client kinds dial out.
	Server bool
	// PushesEvents is set for kinds that deliver event envelopes to peers.
	PushesEvents bool
	// HandlesActions is set for kinds that answer action requests.
	HandlesActions bool
	// Reconnecting client kinds retry forever at a fixed interval.
	Reconnecting bool

	Name string
}

// Predefined capability sets for the built-in kinds.
var (
	HTTPCapabilities = Capabilities{
		Server:         true,
		HandlesActions: true,
		Name:           KindHTTP,
	}
	WebhookCapabilities = Capabilities{
		PushesEvents: true,
		Reconnecting: true,
		Name:         KindWebhook,
	}
	WebSocketCapabilities = Capabilities{
		Duplex:         true,
		Server:         true,
		PushesEvents:   true,
		HandlesActions: true,
		Name:           KindWebSocket,
	}
	WSReverseCapabilities = Capabilities{
		Duplex:         true,
		PushesEvents:   true,
		HandlesActions: true,
		Reconnecting:   true,
		Name:           KindWSReverse,
	}
)
