package botwire

import (
	"context"
	"log/slog"

	runtimepkg "github.com/botwire/botwire/internal/runtime"
	configpkg "github.com/botwire/botwire/internal/runtime/config"
	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	idspkg "github.com/botwire/botwire/internal/runtime/ids"
	"github.com/botwire/botwire/internal/runtime/jsoncodec"
	loggingpkg "github.com/botwire/botwire/internal/runtime/logging"
)

type (
	// Protocol revisions. Version is the constraint; V11 and V12 are the
	// concrete markers.
	Version = runtimepkg.Version
	V11     = runtimepkg.V11
	V12     = runtimepkg.V12

	// Wire envelopes.
	BaseEvent[E any] = runtimepkg.BaseEvent[E]
	Action[P any]    = runtimepkg.Action[P]
	Resp[R any]      = runtimepkg.Resp[R]

	// Standard event payloads.
	StatusContent    = runtimepkg.StatusContent
	HeartbeatContent = runtimepkg.HeartbeatContent
	MessageContent   = runtimepkg.MessageContent

	// Application-side coordinator and its roles.
	OneBot[E, A, R any, V Version]        = runtimepkg.OneBot[E, A, R, V]
	ActionHandler[E, A, R any, V Version] = runtimepkg.ActionHandler[E, A, R, V]
	EventHandler[E, A, R any, V Version]  = runtimepkg.EventHandler[E, A, R, V]

	// Implementation-side runtime.
	Impl[E, A, R any]          = runtimepkg.Impl[E, A, R]
	Identity                   = runtimepkg.Identity
	ImplDependencies[E any]    = runtimepkg.ImplDependencies[E]
	ActionCaller[A, R any]     = runtimepkg.ActionCaller[A, R]
	ActionCallerFunc[A, R any] = runtimepkg.ActionCallerFunc[A, R]

	Task = runtimepkg.Task

	// Configuration.
	ImplConfig         = configpkg.ImplConfig
	HTTPConfig         = configpkg.HTTPConfig
	WebhookConfig      = configpkg.WebhookConfig
	WebSocketConfig    = configpkg.WebSocketConfig
	WebSocketRevConfig = configpkg.WebSocketRevConfig
	HeartbeatConfig    = configpkg.HeartbeatConfig

	// Logging.
	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError
)

// Response retcodes.
const (
	RetCodeOK                = runtimepkg.RetCodeOK
	RetCodeBadRequest        = runtimepkg.RetCodeBadRequest
	RetCodeUnsupportedAction = runtimepkg.RetCodeUnsupportedAction
	RetCodeBadParam          = runtimepkg.RetCodeBadParam
	RetCodeUnsupportedParam  = runtimepkg.RetCodeUnsupportedParam
	RetCodeInternalHandler   = runtimepkg.RetCodeInternalHandler
)

var (
	ErrAlreadyRunning    = errspkg.ErrAlreadyRunning
	ErrNotRunning        = errspkg.ErrNotRunning
	ErrNoSubscriber      = errspkg.ErrNoSubscriber
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrConverterRequired = errspkg.ErrConverterRequired
)

var (
	// NewULID mints a lexicographically sortable event id.
	NewULID = idspkg.New

	// JSON codec used on every wire boundary.
	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	Nop = loggingpkg.Nop

	// NewWatermillLogger adapts a ServiceLogger for Watermill components.
	NewWatermillLogger = loggingpkg.NewWatermillAdapter
)

// NewSlogServiceLogger adapts a *slog.Logger to the ServiceLogger interface.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(log)
}

// NewOneBot pairs an action-handling role with an event-handling role under
// one lifecycle coordinator.
func NewOneBot[E, A, R any, V Version](ah ActionHandler[E, A, R, V], eh EventHandler[E, A, R, V]) *OneBot[E, A, R, V] {
	return runtimepkg.NewOneBot(ah, eh)
}

// NewImpl builds a stopped implementation-side runtime.
func NewImpl[E, A, R any](identity Identity, cfg ImplConfig, handler ActionCaller[A, R], log ServiceLogger, deps ImplDependencies[E]) (*Impl[E, A, R], error) {
	return runtimepkg.NewImpl(identity, cfg, handler, log, deps)
}

// Spawn runs fn on its own goroutine and returns its task handle.
func Spawn(parent context.Context, name string, fn func(ctx context.Context)) *Task {
	return runtimepkg.Spawn(parent, name, fn)
}

// Response constructors.

func RespOK[R any](data R) Resp[R]                 { return runtimepkg.RespOK(data) }
func RespBadRequest[R any](message string) Resp[R] { return runtimepkg.RespBadRequest[R](message) }
func RespUnsupportedAction[R any]() Resp[R]        { return runtimepkg.RespUnsupportedAction[R]() }
func RespBadParam[R any](message string) Resp[R]   { return runtimepkg.RespBadParam[R](message) }
func RespFailed[R any](retcode int64, message string) Resp[R] {
	return runtimepkg.RespFailed[R](retcode, message)
}
