// Package botwire is a version-parameterized runtime for OneBot-style chat
// protocols. It covers both halves of a deployment: the implementation side,
// which speaks to a chat platform and exposes the protocol over HTTP,
// webhook, WebSocket, and reverse WebSocket transports, and the application
// side, which composes an action-handling role and an event-handling role
// under one lifecycle coordinator.
//
// The event, action, and response payload types are fully generic, so the
// standard OneBot event set and platform-specific extensions share the same
// runtime. The protocol revision is a phantom type parameter: handlers built
// for V11 and V12 cannot be mixed by construction.
//
// # Implementation side
//
// Fill an ImplConfig, implement ActionCaller for your platform, and create
// an Impl with NewImpl. Run spawns one task per configured transport plus
// the heartbeat; Shutdown flips the running flag and the tasks wind down
// cooperatively. Events fan out to every connected transport through a
// bounded broadcaster that favours producers: a slow consumer loses its
// oldest unread events rather than applying backpressure.
//
// Transports register themselves on import, the same way database/sql
// drivers do:
//
//	import (
//		_ "github.com/botwire/botwire/transport/http"
//		_ "github.com/botwire/botwire/transport/websocket"
//	)
//
// # Application side
//
// NewOneBot pairs an ActionHandler with an EventHandler. Start launches both
// roles in a deterministic order and returns their task handles; Shutdown
// broadcasts a one-shot signal that every Signal subscriber observes exactly
// once. The bridge package ships an EventHandler that forwards events onto a
// Watermill publisher, which connects bot traffic to any broker Watermill
// supports.
//
// # Observability
//
// Every Impl carries its own Prometheus registry (exposed on MetricsAddr
// when set), traces action handling through OpenTelemetry, and logs through
// the ServiceLogger interface; NewSlogServiceLogger adapts a *slog.Logger.
package botwire
