// Package wsreverse dials out to a configured WebSocket endpoint and keeps
// the connection alive with the fixed-interval reconnect loop. The session
// is duplex: events flow out, actions flow in.
package wsreverse

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	errspkg "github.com/botwire/botwire/internal/runtime/errors"
	"github.com/botwire/botwire/internal/runtime/logging"
	"github.com/botwire/botwire/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
	dialTimeout    = 10 * time.Second
)

func init() {
	transport.RegisterWithCapabilities(transport.KindWSReverse, New, transport.WSReverseCapabilities)
}

// Transport is one outbound WebSocket client.
type Transport struct {
	cfg transport.Config
	rt  transport.Runtime
	log logging.ServiceLogger
}

func New(cfg transport.Config, rt transport.Runtime) (transport.Transport, error) {
	if cfg.GetAddr() == "" {
		return nil, errspkg.ErrAddressRequired
	}
	return &Transport{
		cfg: cfg,
		rt:  rt,
		log: rt.Logger().With(logging.LogFields{"transport": transport.KindWSReverse, "url": cfg.GetAddr()}),
	}, nil
}

func (t *Transport) Name() string { return transport.KindWSReverse }

// Run dials and redials until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) {
	transport.ReconnectForever(ctx, t.cfg.GetReconnectInterval(), t.connect, t.session, t.log, t.rt.Metrics())
}

func (t *Transport) connect(ctx context.Context) (*websocket.Conn, error) {
	impl, platform, selfID := t.rt.Identity()
	header := http.Header{}
	header.Set("X-OneBot-Version", transport.ProtocolVersion)
	header.Set("X-Impl", impl)
	header.Set("X-Platform", platform)
	header.Set("X-Self-ID", selfID)
	if token := t.cfg.GetAccessToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, t.cfg.GetAddr(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// session drives one established connection. Online is true exactly while a
// session is live.
func (t *Transport) session(ctx context.Context, conn *websocket.Conn) {
	t.log.Info("connected", nil)
	t.rt.Metrics().WSConnected()
	t.rt.SetOnline(true)
	defer func() {
		t.rt.SetOnline(false)
		t.rt.Metrics().WSDisconnected()
		t.log.Info("disconnected", nil)
	}()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := make(chan []byte, sendBuffer)
	go t.pumpEvents(sessionCtx, send)
	go t.writePump(sessionCtx, cancel, conn, send)
	t.readPump(sessionCtx, conn, send)
}

func (t *Transport) pumpEvents(ctx context.Context, send chan<- []byte) {
	frames := t.rt.EventFrames()
	defer frames.Close()
	for {
		frame, ok := frames.Next(ctx)
		if !ok {
			return
		}
		select {
		case send <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Transport) readPump(ctx context.Context, conn *websocket.Conn, send chan<- []byte) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.Debug("read failed", logging.LogFields{"error": err.Error()})
			}
			return
		}
		out, err := t.rt.HandleFrame(ctx, payload)
		if err != nil {
			t.log.Error("action handling failed", err, nil)
			continue
		}
		select {
		case send <- out:
		case <-ctx.Done():
			return
		}
	}
}

// writePump owns all writes. It cancels the session context on exit so the
// read and event pumps cannot stay blocked on a full send queue after the
// writer dies, which would also stall the reconnect loop.
func (t *Transport) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()
	defer cancel()

	for {
		select {
		case frame := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
			return
		}
	}
}
