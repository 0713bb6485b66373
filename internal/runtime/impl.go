package runtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/botwire/botwire/internal/runtime/config"
	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	idspkg "github.com/botwire/botwire/internal/runtime/ids"
	"github.com/botwire/botwire/internal/runtime/jsoncodec"
	loggingpkg "github.com/botwire/botwire/internal/runtime/logging"
	metricspkg "github.com/botwire/botwire/internal/runtime/metrics"
	"github.com/botwire/botwire/segment"
	transportpkg "github.com/botwire/botwire/transport"
)

// ActionCaller answers a single decoded action. It is the contract the
// implementation-side runtime shares across every transport, so it must be
// safe under concurrent invocation.
type ActionCaller[A, R any] interface {
	HandleAction(ctx context.Context, action A) (Resp[R], error)
}

// ActionCallerFunc adapts a function to the ActionCaller interface.
type ActionCallerFunc[A, R any] func(ctx context.Context, action A) (Resp[R], error)

func (f ActionCallerFunc[A, R]) HandleAction(ctx context.Context, action A) (Resp[R], error) {
	return f(ctx, action)
}

// Identity names the implementation on the wire.
type Identity struct {
	Impl     string
	Platform string
	SelfID   string
}

// ImplDependencies holds the optional collaborators of an Impl. Converters
// translate the standard event payloads into the runtime's content type;
// FromHeartbeat is required when the heartbeat is enabled.
type ImplDependencies[E any] struct {
	FromHeartbeat  func(HeartbeatContent) E
	FromMessage    func(MessageContent) E
	TracerProvider trace.TracerProvider
}

// Impl is the implementation-side runtime: it owns the configured
// transports, the heartbeat task, the event broadcaster, and the
// running/online flags. Construct one per bot account with NewImpl.
type Impl[E, A, R any] struct {
	identity Identity
	cfg      configpkg.ImplConfig
	handler  ActionCaller[A, R]
	deps     ImplDependencies[E]

	broadcaster *Broadcaster[E]
	status      Status
	log         loggingpkg.ServiceLogger
	metrics     *metricspkg.Metrics
	tracer      trace.Tracer

	// Per-transport-kind task handles; grows only, under the write lock.
	tasksMu sync.RWMutex
	tasks   map[string][]*Task
}

// NewImpl validates the configuration and builds a stopped runtime holding a
// shared action handler.
func NewImpl[E, A, R any](identity Identity, cfg configpkg.ImplConfig, handler ActionCaller[A, R], log loggingpkg.ServiceLogger, deps ImplDependencies[E]) (*Impl[E, A, R], error) {
	if handler == nil {
		return nil, errspkg.ErrHandlerRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	provider := deps.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Impl[E, A, R]{
		identity:    identity,
		cfg:         cfg,
		handler:     handler,
		deps:        deps,
		broadcaster: NewBroadcaster[E](),
		log: log.With(loggingpkg.LogFields{
			"impl":     identity.Impl,
			"platform": identity.Platform,
			"self_id":  identity.SelfID,
		}),
		metrics: metricspkg.New(),
		tracer:  provider.Tracer("github.com/botwire/botwire"),
		tasks:   make(map[string][]*Task),
	}, nil
}

// Run spawns every configured transport task plus the heartbeat task and
// returns without blocking. It fails with ErrAlreadyRunning when called on a
// running instance and leaves no side effects in that case. A transport
// build failure aborts the tasks spawned so far and clears the running flag.
//
// Shutdown does not cancel the spawned tasks; retrieve them with Tasks and
// await or abort them to release resources. Re-running an instance after
// shutdown is not a supported transition.
func (im *Impl[E, A, R]) Run(ctx context.Context) error {
	if im.status.IsRunning() {
		return errspkg.ErrAlreadyRunning
	}
	if im.cfg.Heartbeat.Enabled && im.deps.FromHeartbeat == nil {
		return errspkg.ErrConverterRequired
	}

	// The flag flips before any transport spawns so status is coherent no
	// matter which transports are configured.
	im.status.SetRunning()
	im.log.Info("implementation is booting", nil)

	type entry struct {
		kind string
		cfg  transportpkg.Config
	}
	var entries []entry
	for i := range im.cfg.HTTP {
		entries = append(entries, entry{transportpkg.KindHTTP, &im.cfg.HTTP[i]})
	}
	for i := range im.cfg.HTTPWebhook {
		entries = append(entries, entry{transportpkg.KindWebhook, &im.cfg.HTTPWebhook[i]})
	}
	for i := range im.cfg.WebSocket {
		entries = append(entries, entry{transportpkg.KindWebSocket, &im.cfg.WebSocket[i]})
	}
	for i := range im.cfg.WebSocketRev {
		entries = append(entries, entry{transportpkg.KindWSReverse, &im.cfg.WebSocketRev[i]})
	}

	for _, en := range entries {
		tr, err := transportpkg.Build(en.kind, en.cfg, im)
		if err != nil {
			im.abortTasks()
			im.status.ClearRunning()
			return err
		}
		im.log.Info("starting transport", loggingpkg.LogFields{"kind": en.kind, "addr": en.cfg.GetAddr()})
		im.appendTask(en.kind, Spawn(ctx, en.kind, tr.Run))
	}

	if im.cfg.Heartbeat.Enabled {
		im.appendTask("heartbeat", Spawn(ctx, "heartbeat", im.heartbeat))
	}
	if im.cfg.MetricsAddr != "" {
		im.appendTask("metrics", Spawn(ctx, "metrics", im.serveMetrics))
	}
	return nil
}

// Shutdown flips the running flag so cooperative tasks stop emitting. It
// neither waits for nor cancels in-flight tasks.
func (im *Impl[E, A, R]) Shutdown() {
	im.status.ClearRunning()
	im.log.Info("implementation shutting down", nil)
}

func (im *Impl[E, A, R]) IsRunning() bool  { return im.status.IsRunning() }
func (im *Impl[E, A, R]) IsShutdown() bool { return im.status.IsShutdown() }

// GetStatus snapshots the liveness flags.
func (im *Impl[E, A, R]) GetStatus() StatusContent {
	return im.status.Snapshot()
}

// Tasks returns a snapshot of every spawned task handle.
func (im *Impl[E, A, R]) Tasks() []*Task {
	im.tasksMu.RLock()
	defer im.tasksMu.RUnlock()
	var all []*Task
	for _, list := range im.tasks {
		all = append(all, list...)
	}
	return all
}

func (im *Impl[E, A, R]) appendTask(kind string, task *Task) {
	im.tasksMu.Lock()
	defer im.tasksMu.Unlock()
	im.tasks[kind] = append(im.tasks[kind], task)
}

func (im *Impl[E, A, R]) abortTasks() {
	for _, task := range im.Tasks() {
		task.Abort()
	}
}

// SendEvent publishes one envelope to all current subscribers and returns
// the receiver count. Zero subscribers is the soft failure ErrNoSubscriber.
func (im *Impl[E, A, R]) SendEvent(event BaseEvent[E]) (int, error) {
	n, err := im.broadcaster.Send(event)
	if err != nil {
		im.metrics.EventDropped()
		return n, err
	}
	im.metrics.EventPublished()
	return n, nil
}

// NewEvent wraps content in a fresh envelope.
func (im *Impl[E, A, R]) NewEvent(content E) BaseEvent[E] {
	return BaseEvent[E]{
		ID:       idspkg.New(),
		Impl:     im.identity.Impl,
		Platform: im.identity.Platform,
		SelfID:   im.identity.SelfID,
		Time:     timestamp(),
		Content:  content,
	}
}

// NewMessageEvent builds a standard message event. An empty groupID means a
// private message. Requires the FromMessage converter.
func (im *Impl[E, A, R]) NewMessageEvent(userID, groupID string, msg segment.Message) (BaseEvent[E], error) {
	if im.deps.FromMessage == nil {
		return BaseEvent[E]{}, errspkg.ErrConverterRequired
	}
	detail := "private"
	if groupID != "" {
		detail = "group"
	}
	content := MessageContent{
		Type:       "message",
		DetailType: detail,
		MessageID:  idspkg.New(),
		Message:    msg,
		AltMessage: msg.Alt(),
		UserID:     userID,
		GroupID:    groupID,
	}
	return im.NewEvent(im.deps.FromMessage(content)), nil
}

// resolveHeartbeatInterval clamps nonsense intervals to the default.
func resolveHeartbeatInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return configpkg.DefaultHeartbeatInterval
	}
	return d
}

// heartbeatSeconds reports the interval in whole seconds for the wire
// payload. Sub-second intervals round up to 1 rather than truncating to 0.
func heartbeatSeconds(d time.Duration) int64 {
	s := int64(d / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

// heartbeat polls the running flag once per interval, so shutdown latency is
// bounded by the interval.
func (im *Impl[E, A, R]) heartbeat(ctx context.Context) {
	interval := resolveHeartbeatInterval(im.cfg.Heartbeat.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if im.status.IsShutdown() {
			return
		}
		im.log.Trace("heartbeating", nil)
		content := HeartbeatContent{
			Type:       "meta",
			DetailType: "heartbeat",
			Interval:   heartbeatSeconds(interval),
			Status:     im.GetStatus(),
		}
		im.metrics.HeartbeatSent()
		// Nobody listening is fine.
		_, _ = im.SendEvent(im.NewEvent(im.deps.FromHeartbeat(content)))
	}
}

func (im *Impl[E, A, R]) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(im.metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: im.cfg.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		im.log.Error("metrics listener failed", err, loggingpkg.LogFields{"addr": im.cfg.MetricsAddr})
	}
}

// --- transport.Runtime ---

func (im *Impl[E, A, R]) Identity() (string, string, string) {
	return im.identity.Impl, im.identity.Platform, im.identity.SelfID
}

func (im *Impl[E, A, R]) Logger() loggingpkg.ServiceLogger { return im.log }

func (im *Impl[E, A, R]) Metrics() *metricspkg.Metrics { return im.metrics }

func (im *Impl[E, A, R]) SetOnline(online bool) {
	im.status.SetOnline(online)
}

// EventFrames opens an encoded tap on the broadcaster for one transport
// connection.
func (im *Impl[E, A, R]) EventFrames() transportpkg.FrameStream {
	return &frameStream[E]{
		sub: im.broadcaster.Subscribe(),
		log: im.log,
	}
}

// HandleFrame decodes one action frame, dispatches it to the shared handler
// inside a trace span, and encodes the response. Decode failures come back
// as failed response envelopes, not errors; the error return is reserved
// for response encoding problems.
func (im *Impl[E, A, R]) HandleFrame(ctx context.Context, payload []byte) ([]byte, error) {
	var probe struct {
		Action string `json:"action"`
		Echo   string `json:"echo"`
	}
	_ = jsoncodec.Unmarshal(payload, &probe)

	ctx, span := im.tracer.Start(ctx, "onebot.action",
		trace.WithAttributes(
			attribute.String("onebot.action", probe.Action),
			attribute.String("onebot.platform", im.identity.Platform),
		))
	defer span.End()

	var action A
	if err := jsoncodec.Unmarshal(payload, &action); err != nil {
		span.SetStatus(codes.Error, "bad request")
		im.metrics.ActionHandled("failed")
		resp := RespBadRequest[R](err.Error())
		resp.Echo = probe.Echo
		return jsoncodec.Marshal(resp)
	}

	resp, err := im.handler.HandleAction(ctx, action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler error")
		im.metrics.ActionHandled("failed")
		resp = RespInternalHandler[R](err.Error())
	} else {
		im.metrics.ActionHandled(resp.Status)
	}
	if resp.Echo == "" {
		resp.Echo = probe.Echo
	}
	return jsoncodec.Marshal(resp)
}

type frameStream[E any] struct {
	sub *Subscription[E]
	log loggingpkg.ServiceLogger
}

func (f *frameStream[E]) Next(ctx context.Context) ([]byte, bool) {
	for {
		event, ok := f.sub.Next(ctx)
		if !ok {
			return nil, false
		}
		data, err := jsoncodec.Marshal(event)
		if err != nil {
			f.log.Error("dropping unencodable event", err, loggingpkg.LogFields{"id": event.ID})
			continue
		}
		return data, true
	}
}

func (f *frameStream[E]) Close() {
	f.sub.Close()
}
